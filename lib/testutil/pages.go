package testutil

const IncorrectCredentialsMessage = "Your username or password is incorrect"

const IncorrectCredentialsAlert = `<div class="alert alert-danger alert-dismissable" role="alert">
  <span class="sr-only">Error:</span>
  Your username or password is incorrect
  <button type="button" class="close" data-dismiss="alert" aria-label="Close"><span aria-hidden="true">&times;</span></button>
</div>`

const loginPage = `<!DOCTYPE html>
<html>
<head><title>CTFd</title></head>
<body>
<main role="main">
  <div class="jumbotron"><div class="container"><h1>Login</h1></div></div>
  <div class="container">
    {{alert}}
    <form method="post" accept-charset="utf-8">
      <input class="form-control" id="name" name="name" type="text" value="">
      <input class="form-control" id="password" name="password" type="password" value="">
      <input class="btn btn-md btn-primary" id="_submit" name="_submit" type="submit" value="Submit">
      {{nonce}}
    </form>
  </div>
</main>
</body>
</html>`

const challengesPage = `<!DOCTYPE html>
<html>
<head><title>CTFd</title></head>
<body><main role="main"><h1>Challenges</h1></main></body>
</html>`

const forbiddenPage = `<!DOCTYPE html>
<html>
<head><title>403 Forbidden</title></head>
<body><h1>Forbidden</h1></body>
</html>`

// StatisticsFields are the headings of StatisticsPage in document order.
var StatisticsFields = []string{
	"Statistics",
	"3 users registered",
	"2 teams registered",
	"1 IP addresses",
	"4 challenges",
	"50% solve percentage",
}

const StatisticsPage = `<!DOCTYPE html>
<html>
<head><title>CTFd Admin</title></head>
<body>
<nav><h4>CTFd</h4></nav>
<main role="main">
  <div class="jumbotron"><div class="container"><h1>Statistics</h1></div></div>
  <div class="container">
    <div class="row">
      <div class="col-md-3">
        <h5><b>3</b> users registered</h5>
        <h5><b>2</b> teams registered</h5>
        <h5><b>1</b> IP addresses</h5>
        <hr>
        <h5><b>4</b>
          challenges</h5>
        <h5><b>50%</b> solve percentage</h5>
        <h5>   </h5>
      </div>
    </div>
  </div>
</main>
</body>
</html>`
