package constants

// Route group prefixes shared between the router and tests
const (
	UserRoute          = "/user"
	FavoritesRoute     = "/favorites"
	ProfilesRoute      = "/profiles"
	SubscriptionsRoute = "/subscriptions"
	CardsRoute         = "/cards"
	APIRoute           = "/api"
	DocsRoute          = "/docs"
)
