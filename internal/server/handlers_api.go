package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"title-party/internal/game"
)

type createRoomRequest struct {
	Nickname    string `json:"nickname" binding:"required,nickname"`
	MaxPlayers  int    `json:"max_players"`
	TotalRounds int    `json:"total_rounds"`
}

type joinRoomRequest struct {
	Code     string `json:"code" binding:"required,roomcode"`
	Nickname string `json:"nickname" binding:"required,nickname"`
}

type playerRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

// submitRequest carries a title either as flat fields or as a slot layout.
// The layout wins when both are sent.
type submitRequest struct {
	PlayerID  string        `json:"player_id" binding:"required"`
	Round     int           `json:"round" binding:"required,min=1"`
	Card1ID   string        `json:"card1_id" binding:"required_without=Slots"`
	Card2ID   string        `json:"card2_id" binding:"required_without=Slots"`
	FreeWord  string        `json:"free_word" binding:"omitempty,freeword"`
	WordOrder []int         `json:"word_order" binding:"omitempty,len=3"`
	Slots     []slotRequest `json:"slots" binding:"omitempty,len=3,dive"`
}

type slotRequest struct {
	Kind   string `json:"kind" binding:"required,oneof=card word"`
	CardID string `json:"card_id"`
	Text   string `json:"text" binding:"omitempty,freeword"`
}

func (r submitRequest) title() (game.TitleParts, error) {
	if len(r.Slots) == 0 {
		if len(r.WordOrder) != len(game.WordOrder{}) {
			return game.TitleParts{}, game.ErrInvalidWordOrder
		}
		var order game.WordOrder
		copy(order[:], r.WordOrder)
		return game.TitleParts{Card1ID: r.Card1ID, Card2ID: r.Card2ID, FreeWord: r.FreeWord, WordOrder: order}, nil
	}
	var slots [3]game.Slot
	for i, slot := range r.Slots {
		if slot.Kind == game.SlotCard.String() {
			slots[i] = game.CardSlot(slot.CardID)
		} else {
			slots[i] = game.WordSlot(slot.Text)
		}
	}
	return game.ComposeTitle(slots)
}

type voteRequest struct {
	PlayerID     string `json:"player_id" binding:"required"`
	Round        int    `json:"round" binding:"required,min=1"`
	SubmissionID string `json:"submission_id" binding:"required"`
}

type viewingRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Index    *int   `json:"index" binding:"required"`
}

type showAllRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Show     *bool  `json:"show" binding:"required"`
}

var (
	nicknameMessages = map[string]string{
		"required": "nickname is required",
		"nickname": "nickname contains unsupported characters",
	}
	playerMessages = map[string]string{
		"required": "player_id is required",
	}
)

func seatPayload(seat game.Seat) gin.H {
	return gin.H{
		"room":   roomPayload(seat.Room),
		"player": playerPayload(seat.Player),
		"hand":   cardsPayload(seat.Hand),
	}
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if !bindJSON(c, &req, bindMessages{"Nickname": nicknameMessages}, "invalid room settings") {
		return
	}
	seat, err := s.engine.CreateRoom(c.Request.Context(), game.CreateRoomParams{
		Nickname:    req.Nickname,
		MaxPlayers:  req.MaxPlayers,
		TotalRounds: req.TotalRounds,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, seatPayload(seat))
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	messages := bindMessages{
		"Nickname": nicknameMessages,
		"Code": {
			"required": "room code is required",
			"roomcode": "room code must be 6 letters or digits",
		},
	}
	if !bindJSON(c, &req, messages, "") {
		return
	}
	seat, err := s.engine.JoinRoom(c.Request.Context(), req.Code, req.Nickname)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seatPayload(seat))
}

// handleLookupRoom lets the join screen check a code before asking for a
// nickname.
func (s *Server) handleLookupRoom(c *gin.Context) {
	code := game.NormalizeRoomCode(c.Param("code"))
	if !game.ValidRoomCode(code) {
		s.writeError(c, game.ErrRoomNotFound)
		return
	}
	room, err := s.engine.RoomByCode(c.Request.Context(), code)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room":     roomPayload(room),
		"joinable": room.Status == game.StatusWaiting,
	})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	viewerID, ok := bindViewer(c)
	if !ok {
		return
	}
	snap, err := s.engine.Snapshot(c.Request.Context(), roomID, viewerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotPayload(snap))
}

func (s *Server) handleEvents(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	events, err := s.engine.Events(c.Request.Context(), roomID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	page, perPage := parsePagination(c, defaultEventsPerPage, maxEventsPerPage)
	meta, start, end := paginate(page, perPage, len(events))
	out := make([]map[string]any, 0, end-start)
	for _, event := range events[start:end] {
		out = append(out, eventPayload(event))
	}
	c.JSON(http.StatusOK, gin.H{"events": out, "pagination": meta})
}

func (s *Server) handleLeave(c *gin.Context) {
	s.playerAction(c, func(roomID, playerID string) (game.Room, error) {
		return s.engine.LeaveRoom(c.Request.Context(), roomID, playerID)
	})
}

func (s *Server) handleStart(c *gin.Context) {
	s.playerAction(c, func(roomID, playerID string) (game.Room, error) {
		return s.engine.StartGame(c.Request.Context(), roomID, playerID)
	})
}

func (s *Server) handleNextRound(c *gin.Context) {
	s.playerAction(c, func(roomID, playerID string) (game.Room, error) {
		return s.engine.NextRound(c.Request.Context(), roomID, playerID)
	})
}

func (s *Server) handleTopUp(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req playerRequest
	if !bindJSON(c, &req, bindMessages{"PlayerID": playerMessages}, "") {
		return
	}
	dealt, err := s.engine.TopUpHands(c.Request.Context(), roomID, req.PlayerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dealt": dealt})
}

// playerAction runs a room operation on behalf of the player named in the
// request body and responds with the updated room.
func (s *Server) playerAction(c *gin.Context, action func(roomID, playerID string) (game.Room, error)) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req playerRequest
	if !bindJSON(c, &req, bindMessages{"PlayerID": playerMessages}, "") {
		return
	}
	room, err := action(roomID, req.PlayerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": roomPayload(room)})
}

func (s *Server) handleCountdown(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	room, err := s.engine.BeginCountdown(c.Request.Context(), roomID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": roomPayload(room)})
}

func (s *Server) handlePlay(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	room, err := s.engine.BeginPlaying(c.Request.Context(), roomID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": roomPayload(room)})
}

func (s *Server) handleClose(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	advanced, err := s.engine.CloseSubmissions(c.Request.Context(), roomID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"advanced": advanced})
}

func (s *Server) handleSubmit(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req submitRequest
	messages := bindMessages{
		"PlayerID": playerMessages,
		"FreeWord": {
			"freeword": game.ErrFreeWordInvalid.Error(),
		},
		"Text": {
			"freeword": game.ErrFreeWordInvalid.Error(),
		},
		"WordOrder": {
			"len": game.ErrInvalidWordOrder.Error(),
		},
		"Slots": {
			"len": game.ErrInvalidWordOrder.Error(),
		},
		"Kind": {
			"required": "slot kind must be card or word",
			"oneof":    "slot kind must be card or word",
		},
	}
	if !bindJSON(c, &req, messages, "invalid submission") {
		return
	}
	parts, err := req.title()
	if err != nil {
		s.writeError(c, err)
		return
	}
	sub, err := s.engine.Submit(c.Request.Context(), game.SubmitParams{
		RoomID:    roomID,
		PlayerID:  req.PlayerID,
		Round:     req.Round,
		Card1ID:   parts.Card1ID,
		Card2ID:   parts.Card2ID,
		FreeWord:  parts.FreeWord,
		WordOrder: parts.WordOrder,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"submission": submissionPayload(sub)})
}

func (s *Server) handleVote(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req, bindMessages{"PlayerID": playerMessages}, "invalid vote") {
		return
	}
	outcome, err := s.engine.CastVote(c.Request.Context(), roomID, req.Round, req.PlayerID, req.SubmissionID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vote":                   votePayload(outcome.Vote),
		"changed":                outcome.Changed,
		"previous_submission_id": outcome.PreviousSubmissionID,
		"round_complete":         outcome.RoundComplete,
	})
}

func (s *Server) handleReload(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req playerRequest
	if !bindJSON(c, &req, bindMessages{"PlayerID": playerMessages}, "") {
		return
	}
	hand, err := s.engine.ReloadHand(c.Request.Context(), roomID, req.PlayerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hand": cardsPayload(hand)})
}

func (s *Server) handleViewing(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req viewingRequest
	if !bindJSON(c, &req, bindMessages{"PlayerID": playerMessages}, "index is required") {
		return
	}
	room, err := s.engine.SetViewingIndex(c.Request.Context(), roomID, req.PlayerID, *req.Index)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": roomPayload(room)})
}

func (s *Server) handleShowAll(c *gin.Context) {
	roomID, ok := bindRoom(c)
	if !ok {
		return
	}
	var req showAllRequest
	if !bindJSON(c, &req, bindMessages{"PlayerID": playerMessages}, "show is required") {
		return
	}
	room, err := s.engine.SetShowAllSubmissions(c.Request.Context(), roomID, req.PlayerID, *req.Show)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": roomPayload(room)})
}
