// Package api exposes the engine over HTTP and a websocket subscribe
// endpoint.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/multiverse-rpg/world-engine/internal/actions"
	"github.com/multiverse-rpg/world-engine/internal/constants"
	"github.com/multiverse-rpg/world-engine/internal/fight"
	"github.com/multiverse-rpg/world-engine/internal/pubsub"
	"github.com/multiverse-rpg/world-engine/internal/scheduler"
	"github.com/multiverse-rpg/world-engine/internal/storage"
)

// API bundles the services the handlers dispatch into.
type API struct {
	repo      storage.Repository
	engine    *actions.Engine
	scheduler *scheduler.Service
	fights    *fight.Service
	hub       *pubsub.Hub
}

func New(repo storage.Repository, engine *actions.Engine, sched *scheduler.Service, fights *fight.Service, hub *pubsub.Hub) *API {
	return &API{repo: repo, engine: engine, scheduler: sched, fights: fights, hub: hub}
}

// Router builds the gin engine with every route attached.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.RouteVersion, a.getVersion)
	r.GET(constants.RouteSubscribe, a.subscribe)

	api := r.Group(constants.RouteAPIPrefix)
	{
		api.GET(constants.RouteCampaigns, a.listCampaigns)
		api.GET(constants.RouteCampaignByID, a.getCampaign)
		api.GET(constants.RouteCampaignCycle, a.getCurrentCycle)
		api.POST(constants.RouteCampaignRunCycle, a.runCycle)
		api.POST(constants.RouteCampaignActions, a.submitAction)
		api.GET(constants.RouteActionByID, a.getAction)
		api.GET(constants.RoutePositions, a.listPositions)
		api.GET(constants.RouteCharacters, a.listCharacters)
		api.GET(constants.RouteCharacterByID, a.getCharacter)
		api.POST(constants.RouteChallenge, a.createChallenge)
		api.POST(constants.RouteFights, a.startFight)
		api.POST(constants.RouteFightJoin, a.joinFight)
		api.POST(constants.RouteBargainResolve, a.resolveBargain)
	}
	return r
}
