package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sauravnr/ludopi-sub000/game"
	"github.com/sauravnr/ludopi-sub000/tokens"
)

type usernameRequest struct {
	Username string `json:"username" binding:"required"`
}

// Generates a token using the username passed as request body
func (s *Server) TokenGenerator(c *gin.Context) {
	var data usernameRequest

	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	payload := tokens.Payload{
		ID:       uuid.NewString(),
		Username: data.Username,
	}

	token, err := tokens.NewJWTToken(jwt.MapClaims{
		"username": payload.Username,
		"id":       payload.ID,
	}, []byte(s.config.JWTSecret))

	if err != nil {
		log.Println(err)
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		return
	}

	c.JSON(http.StatusOK, successResponse("Auth data", gin.H{
		"id":       payload.ID,
		"username": payload.Username,
		"token":    token,
	}))
}

type createRoomRequest struct {
	Mode string `json:"mode" binding:"required,oneof=2p 4p"`
}

// CreateRoom registers a fresh lobby and hands back its shareable code.
// Joining and everything after happens over the websocket connection.
func (s *Server) CreateRoom(c *gin.Context) {
	if _, ok := GetPayload(c); !ok {
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		log.Println(errors.New("value in auth_payload key of request context could not be casted to *tokens.Payload"))
		return
	}

	var data createRoomRequest

	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	room, err := s.registry.Create(game.Mode(data.Mode))

	if err != nil {
		log.Println("error creating room:", err)
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Room created", gin.H{
		"code":     room.Code(),
		"mode":     room.Mode(),
		"capacity": room.Mode().Capacity(),
	}))
}

type checkRoomRequest struct {
	Code string `uri:"code" binding:"required"`
}

func (s *Server) CheckRoom(c *gin.Context) {
	var data checkRoomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	room, ok := s.registry.Get(data.Code)

	if !ok {
		c.JSON(http.StatusNotFound, errorResponse("room not found"))
		return
	}

	players := room.Players()

	c.JSON(http.StatusOK, successResponse("room data", gin.H{
		"code":    room.Code(),
		"mode":    room.Mode(),
		"started": room.Started(),
		"full":    len(players) >= room.Mode().Capacity(),
	}))
}
