package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cinefila/cinefila/app/controllers"
	"github.com/cinefila/cinefila/internal/pkg/billing"
	"github.com/cinefila/cinefila/internal/pkg/constants"
	"github.com/cinefila/cinefila/internal/pkg/database"
	"github.com/cinefila/cinefila/internal/pkg/middleware"
	"github.com/cinefila/cinefila/internal/pkg/ratelimit"
)

// accountExporter is wired from main before the router is installed; nil
// disables the account export on subscription cancel.
var accountExporter controllers.AccountExporter

// SetAccountExporter registers the job-queue exporter used on cancel.
func SetAccountExporter(e controllers.AccountExporter) {
	accountExporter = e
}

type RestRouter struct {
}

func NewRestRouter() *RestRouter {
	return &RestRouter{}
}

// InstallRouter registers the mobile client's REST surface. Register and
// login are the only routes reachable without an API token.
func (h RestRouter) InstallRouter(app *fiber.App) {
	billingSvc := billing.NewServiceFromDB(database.GetDB())
	profileCtrl := controllers.NewProfileController(billingSvc)
	subscriptionCtrl := controllers.NewSubscriptionController(billingSvc, accountExporter)

	// Credential endpoints get a tight limit, token issuance is the one
	// thing worth brute-forcing.
	authLimiter := ratelimit.NewLimiter(10)
	user := app.Group(constants.UserRoute)
	user.Post("/register", authLimiter, controllers.HandleUserRegister)
	user.Post("/login", authLimiter, controllers.HandleUserLogin)

	auth := middleware.APITokenAuthMiddleware()
	user.Put("/update/:id", auth, controllers.HandleUserUpdate)
	user.Get("/find/:id", auth, controllers.HandleUserFind)

	favorites := app.Group(constants.FavoritesRoute, auth)
	favorites.Get("/user/:userId", controllers.HandleFavoritesGet)
	favorites.Post("/add/:userId/:movieId", controllers.HandleFavoriteAdd)
	favorites.Delete("/remove/:userId/:movieId", controllers.HandleFavoriteRemove)
	favorites.Post("/:userId", controllers.HandleFavoritesCreate)

	profiles := app.Group(constants.ProfilesRoute, auth)
	profiles.Get("/user/:userId", profileCtrl.HandleList)
	profiles.Get("/user/:userId/limits", profileCtrl.HandleLimits)
	profiles.Post("/user/:userId/enforce-limits", profileCtrl.HandleEnforceLimits)
	profiles.Post("/", profileCtrl.HandleCreate)
	profiles.Put("/:id", profileCtrl.HandleUpdate)
	profiles.Delete("/:id", profileCtrl.HandleDelete)

	subscriptions := app.Group(constants.SubscriptionsRoute, auth)
	subscriptions.Get("/user/:userId", subscriptionCtrl.HandleGet)
	subscriptions.Post("/user/:userId", subscriptionCtrl.HandleCreate)
	subscriptions.Put("/user/:userId", subscriptionCtrl.HandleUpdate)
	subscriptions.Delete("/user/:userId", subscriptionCtrl.HandleCancel)

	cards := app.Group(constants.CardsRoute, auth)
	cards.Get("/user/:userId", controllers.HandleCardList)
	cards.Post("/", controllers.HandleCardCreate)
	cards.Put("/:id", controllers.HandleCardUpdate)
	cards.Delete("/:id", controllers.HandleCardDelete)
}
