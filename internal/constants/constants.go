package constants

// Centralized constants for env keys, headers and routes.
const (
	// Environment variable keys
	EnvWorldConfig = "WORLD_CONFIG"
	EnvWorldDB     = "WORLD_DB"

	// HTTP headers
	CacheControlHeader  = "Cache-Control"
	CacheControlNoCache = "no-cache, no-store, must-revalidate"
)

// Routes used by the backend router
const (
	RouteAPIPrefix        = "/api"
	RouteVersion          = "/version"
	RouteCampaigns        = "/campaigns"
	RouteCampaignByID     = "/campaigns/:campaignID"
	RouteCampaignCycle    = "/campaigns/:campaignID/cycle"
	RouteCampaignRunCycle = "/campaigns/:campaignID/run-cycle"
	RouteCampaignActions  = "/campaigns/:campaignID/actions"
	RouteActionByID       = "/actions/:actionID"
	RoutePositions        = "/campaigns/:campaignID/positions"
	RouteCharacters       = "/campaigns/:campaignID/characters"
	RouteCharacterByID    = "/characters/:characterID"
	RouteChallenge        = "/characters/:characterID/challenge"
	RouteFights           = "/campaigns/:campaignID/fights"
	RouteFightJoin        = "/fights/:fightID/join"
	RouteBargainResolve   = "/bargains/:bargainID/resolve"
	RouteSubscribe        = "/subscribe"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyDetails = "details"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest     = "Invalid request"
	ErrInvalidCampaignID  = "Invalid campaign ID"
	ErrInvalidCharacterID = "Invalid character ID"
	ErrCampaignNotFound   = "Campaign not found"
	ErrActionNotFound     = "Action not found"
	ErrCharacterNotFound  = "Character not found"
	ErrCycleNotFound      = "No current cycle for campaign"
	ErrFailedFetchData    = "Failed to fetch data"
	ErrFailedStoreAction  = "Failed to store action"
	ErrFailedRunCycle     = "Failed to run cycle"
	ErrActionNotAccepted  = "Action not accepted"
	ErrCampaignNotActive  = "Campaign is not active"
)

// Logging field names
const (
	LogFieldCampaignID  = "campaign_id"
	LogFieldCycleNumber = "cycle_number"
	LogFieldCharacterID = "character_id"
	LogFieldActionID    = "action_id"
	LogFieldActionType  = "action_type"
	LogFieldFightID     = "fight_id"
	LogFieldTurnID      = "turn_id"
	LogFieldChannel     = "channel"
	LogFieldAddr        = "addr"
	LogFieldSource      = "source"
)
