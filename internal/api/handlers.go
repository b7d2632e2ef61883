package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/multiverse-rpg/world-engine/internal/actions"
	"github.com/multiverse-rpg/world-engine/internal/character"
	"github.com/multiverse-rpg/world-engine/internal/constants"
	"github.com/multiverse-rpg/world-engine/internal/events"
	"github.com/multiverse-rpg/world-engine/internal/fight"
	"github.com/multiverse-rpg/world-engine/internal/game"
	"github.com/multiverse-rpg/world-engine/internal/version"
)

func (a *API) getVersion(c *gin.Context) {
	c.Header(constants.CacheControlHeader, constants.CacheControlNoCache)
	c.JSON(http.StatusOK, gin.H{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
		"dirty":   version.Dirty,
	})
}

func (a *API) listCampaigns(c *gin.Context) {
	campaigns, err := a.repo.GetPublicCampaigns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchData})
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

func (a *API) getCampaign(c *gin.Context) {
	id, ok := uintParam(c, "campaignID", constants.ErrInvalidCampaignID)
	if !ok {
		return
	}
	campaign, err := a.repo.GetCampaignByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCampaignNotFound})
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (a *API) getCurrentCycle(c *gin.Context) {
	id, ok := uintParam(c, "campaignID", constants.ErrInvalidCampaignID)
	if !ok {
		return
	}
	cycle, err := a.repo.GetCurrentCycle(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCycleNotFound})
		return
	}
	c.JSON(http.StatusOK, cycle)
}

func (a *API) runCycle(c *gin.Context) {
	id, ok := uintParam(c, "campaignID", constants.ErrInvalidCampaignID)
	if !ok {
		return
	}
	cycle, err := a.scheduler.PlayCycle(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			constants.JSONKeyError:   constants.ErrFailedRunCycle,
			constants.JSONKeyDetails: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"new_cycle_id": cycle.ID, "number": cycle.Number})
}

type submitActionRequest struct {
	InitiatorID       uint            `json:"initiator_id" binding:"required"`
	Type              game.ActionType `json:"type" binding:"required"`
	Targets           []uint          `json:"targets"`
	SkillName         string          `json:"skill_name"`
	ItemID            *uint           `json:"item_id"`
	RequestedItemID   *uint           `json:"requested_item_id"`
	PositionID        *uint           `json:"position_id"`
	AnomalyID         *uint           `json:"anomaly_id"`
	TargetDimensionID *uint           `json:"target_dimension_id"`
	DiceSides         int             `json:"dice_sides"`
	InterventionSize  float64         `json:"intervention_size"`
}

func (a *API) submitAction(c *gin.Context) {
	campaignID, ok := uintParam(c, "campaignID", constants.ErrInvalidCampaignID)
	if !ok {
		return
	}
	var req submitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	campaign, err := a.repo.GetCampaignByID(campaignID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCampaignNotFound})
		return
	}
	if !campaign.Active || campaign.CurrentCycleID == nil {
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrCampaignNotActive})
		return
	}

	act := &game.CharacterAction{
		CycleID:           *campaign.CurrentCycleID,
		InitiatorID:       req.InitiatorID,
		Type:              req.Type,
		SkillName:         req.SkillName,
		ItemID:            req.ItemID,
		RequestedItemID:   req.RequestedItemID,
		PositionID:        req.PositionID,
		AnomalyID:         req.AnomalyID,
		TargetDimensionID: req.TargetDimensionID,
		DiceSides:         req.DiceSides,
		InterventionSize:  req.InterventionSize,
	}
	for _, t := range req.Targets {
		act.Targets = append(act.Targets, game.ActionTarget{CharacterID: t})
	}

	if err := a.engine.Submit(act); err != nil {
		status := errStatus(err)
		c.JSON(status, gin.H{
			constants.JSONKeyError:   constants.ErrActionNotAccepted,
			constants.JSONKeyDetails: err.Error(),
			"accepted":               false,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"accepted": true, "action_id": act.ID, "immediate": act.Immediate})
}

// getAction lets a client poll the outcome of a deferred action.
func (a *API) getAction(c *gin.Context) {
	id, ok := uintParam(c, "actionID", constants.ErrInvalidRequest)
	if !ok {
		return
	}
	act, err := a.repo.GetActionByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrActionNotFound})
		return
	}
	c.JSON(http.StatusOK, act)
}

func (a *API) listPositions(c *gin.Context) {
	id, ok := uintParam(c, "campaignID", constants.ErrInvalidCampaignID)
	if !ok {
		return
	}
	positions, err := a.repo.GetCampaignPositions(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchData})
		return
	}
	c.JSON(http.StatusOK, positions)
}

func (a *API) listCharacters(c *gin.Context) {
	id, ok := uintParam(c, "campaignID", constants.ErrInvalidCampaignID)
	if !ok {
		return
	}
	chars, err := a.repo.GetCampaignCharacters(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchData})
		return
	}
	infos := make([]character.BriefInfo, 0, len(chars))
	for i := range chars {
		v := character.NewView(&chars[i], game.Dimension{}, nil)
		infos = append(infos, v.GetBriefInfo())
	}
	c.JSON(http.StatusOK, infos)
}

func (a *API) getCharacter(c *gin.Context) {
	id, ok := uintParam(c, "characterID", constants.ErrInvalidCharacterID)
	if !ok {
		return
	}
	char, err := a.repo.GetCharacterByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCharacterNotFound})
		return
	}
	dim, err := a.repo.GetDimensionByID(char.DimensionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchData})
		return
	}
	var pos *game.Position
	if char.PositionID != nil {
		pos, _ = a.repo.GetPositionByID(*char.PositionID)
	}
	c.JSON(http.StatusOK, character.NewView(char, *dim, pos).GetCharacterInfo())
}

type createChallengeRequest struct {
	IssuedByID  uint   `json:"issued_by_id" binding:"required"`
	Description string `json:"description" binding:"required"`
}

func (a *API) createChallenge(c *gin.Context) {
	id, ok := uintParam(c, "characterID", constants.ErrInvalidCharacterID)
	if !ok {
		return
	}
	var req createChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if _, err := a.repo.GetCharacterByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrCharacterNotFound})
		return
	}
	challenge := &game.Challenge{
		CharacterID: id,
		IssuedByID:  req.IssuedByID,
		Description: req.Description,
	}
	if err := a.repo.CreateChallenge(challenge); err != nil {
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: "Character already has an open challenge"})
		return
	}
	events.Publish(events.ChallengeCreatedEvent{
		Meta:        events.NewMeta(),
		CharacterID: id,
		IssuedByID:  req.IssuedByID,
		Description: req.Description,
	})
	c.JSON(http.StatusCreated, challenge)
}

type startFightRequest struct {
	InitiatorID uint `json:"initiator_id" binding:"required"`
	TargetID    uint `json:"target_id" binding:"required"`
}

func (a *API) startFight(c *gin.Context) {
	if _, ok := uintParam(c, "campaignID", constants.ErrInvalidCampaignID); !ok {
		return
	}
	var req startFightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	f, err := a.fights.Start(req.InitiatorID, req.TargetID)
	if err != nil {
		c.JSON(errStatus(err), gin.H{constants.JSONKeyError: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, f)
}

type joinFightRequest struct {
	CharacterID uint   `json:"character_id" binding:"required"`
	Side        string `json:"side" binding:"required"`
}

func (a *API) joinFight(c *gin.Context) {
	fightID, ok := uintParam(c, "fightID", constants.ErrInvalidRequest)
	if !ok {
		return
	}
	var req joinFightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if err := a.fights.Join(fightID, req.CharacterID, req.Side); err != nil {
		c.JSON(errStatus(err), gin.H{constants.JSONKeyError: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "joined"})
}

type resolveBargainRequest struct {
	Accept bool `json:"accept"`
}

func (a *API) resolveBargain(c *gin.Context) {
	bargainID, ok := uintParam(c, "bargainID", constants.ErrInvalidRequest)
	if !ok {
		return
	}
	var req resolveBargainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if err := a.engine.ResolveBargain(bargainID, req.Accept); err != nil {
		c.JSON(errStatus(err), gin.H{constants.JSONKeyError: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "resolved"})
}

func uintParam(c *gin.Context, name, errMsg string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: errMsg})
		return 0, false
	}
	return uint(v), true
}

// errStatus maps service errors onto HTTP statuses.
func errStatus(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, character.ErrInsufficientResources),
		errors.Is(err, actions.ErrGameLogic),
		errors.Is(err, actions.ErrMovement),
		errors.Is(err, fight.ErrAlreadyFighting),
		errors.Is(err, fight.ErrFightClosed),
		errors.Is(err, fight.ErrUnknownSide):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
