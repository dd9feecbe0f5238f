package entity

// ViewName identifies which server view is shown in the page container
type ViewName string

const (
	NoView           ViewName = ""
	LoginView        ViewName = "login"
	TransactionsView ViewName = "transactions"
)

// Endpoint paths served by the payment web application
const (
	RefreshPath      = "/refresh"
	LoginPath        = "/login"
	LogoutPath       = "/logout"
	TransactionsPath = "/transactions"
	PaymentPath      = "/payment"
)

// ViewForPath maps a view path to its name
func ViewForPath(path string) ViewName {
	switch path {
	case LoginPath:
		return LoginView
	case TransactionsPath:
		return TransactionsView
	default:
		return ViewName(path)
	}
}

// PageState is the page-level state machine position
type PageState struct {
	Authenticated bool     `json:"authenticated"`
	View          ViewName `json:"view"`
}
