package httpserver

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Routes groups handlers by concern. Member routes require a session token,
// directory routes an admin token.
type Routes struct {
	Login      http.HandlerFunc
	AdminLogin http.HandlerFunc
	Logout     http.HandlerFunc
	Session    http.HandlerFunc

	Prices         http.HandlerFunc
	PurchaseQuote  http.HandlerFunc
	PurchaseCommit http.HandlerFunc

	ListUsers        http.HandlerFunc
	CreateUser       http.HandlerFunc
	DeleteUser       http.HandlerFunc
	UserTransactions http.HandlerFunc
	SetMonthsPaid    http.HandlerFunc

	Health http.HandlerFunc

	Auth      Middleware
	AdminAuth Middleware
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.HandlerFunc, mw Middleware) {
		if h == nil {
			return
		}
		if mw != nil {
			mux.Handle(pattern, mw(h))
			return
		}
		mux.HandleFunc(pattern, h)
	}

	handle("POST /auth/login", routes.Login, nil)
	handle("POST /auth/admin-login", routes.AdminLogin, nil)
	handle("POST /auth/logout", routes.Logout, nil)
	handle("GET /session", routes.Session, nil)

	handle("GET /prices", routes.Prices, nil)
	handle("POST /purchases/quote", routes.PurchaseQuote, routes.Auth)
	handle("POST /purchases", routes.PurchaseCommit, routes.Auth)

	handle("GET /users", routes.ListUsers, routes.AdminAuth)
	handle("POST /users", routes.CreateUser, routes.AdminAuth)
	handle("DELETE /users/{id}", routes.DeleteUser, routes.AdminAuth)
	handle("GET /users/{id}/transactions", routes.UserTransactions, routes.AdminAuth)
	handle("PUT /users/{id}/months-paid", routes.SetMonthsPaid, routes.AdminAuth)

	handle("GET /health", routes.Health, nil)

	return mux
}
