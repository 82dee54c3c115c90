package login

import (
	"github.com/a-h/templ"

	"garmentflow/frontend/shared/view"
)

var loginTemplate = view.New("login", `
<form method="post" action="/login" class="card narrow">
  <label>Username <input name="username" value="{{.Username}}" autocomplete="username" required></label>
  <label>Password <input name="password" type="password" autocomplete="current-password" required></label>
  <label>Company ID <input name="company_id" value="{{.CompanyID}}" placeholder="Employees: your boss's company id"></label>
  <button type="submit">Sign in</button>
</form>
<p>No account yet? <a href="/register">Register</a></p>
`)

var registerTemplate = view.New("register", `
<form method="post" action="/register" class="card narrow">
  <label>Username <input name="username" value="{{.Username}}" required></label>
  <label>Password <input name="password" type="password" minlength="12" required></label>
  <fieldset>
    <legend>I am</legend>
    <label><input type="radio" name="role" value="employee"{{if ne .Role "boss"}} checked{{end}}> an employee</label>
    <label><input type="radio" name="role" value="boss"{{if eq .Role "boss"}} checked{{end}}> a boss opening a company</label>
  </fieldset>
  <label>Company ID (bosses) <input name="company_id" value="{{.CompanyID}}"></label>
  <button type="submit">Register</button>
</form>
<p>Already registered? <a href="/login">Sign in</a></p>
`)

// GetLoginScreen renders the sign-in form.
func GetLoginScreen(data pageData) templ.Component {
	data.Title = "Sign in"
	return view.Page(loginTemplate, data)
}

// GetRegisterScreen renders the registration form.
func GetRegisterScreen(data pageData) templ.Component {
	data.Title = "Register"
	return view.Page(registerTemplate, data)
}
