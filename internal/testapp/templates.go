package testapp

import "html/template"

type loginView struct {
	Email string
	Error string
}

type dashboardView struct {
	Email string
}

// The login markup mirrors the MUI form: data-test-id wrappers around the inputs and
// an Alert with role="alert" for errors.
var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Sign in</title>
</head>
<body>
  <main>
    <h1>Sign in</h1>
    {{if .Error}}<div class="MuiAlert-root" role="alert">{{.Error}}</div>{{end}}
    <form method="post" action="/login">
      <div data-test-id="input--login--email">
        <label for="email">Email</label>
        <input id="email" name="email" type="email" autocomplete="username" value="{{.Email}}">
      </div>
      <div data-test-id="input--login--password">
        <label for="password">Password</label>
        <input id="password" name="password" type="password" autocomplete="current-password">
      </div>
      <button data-test-id="button--login--submit" type="submit">Sign in</button>
    </form>
  </main>
</body>
</html>
`))

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Dashboard</title>
</head>
<body>
  <main data-test-id="page--dashboard">
    <h1>Dashboard</h1>
    <p>Signed in as {{.Email}}</p>
    <form method="post" action="/logout">
      <button data-test-id="button--logout" type="submit">Sign out</button>
    </form>
  </main>
</body>
</html>
`))
