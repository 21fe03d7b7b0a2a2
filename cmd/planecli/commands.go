package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// frame is one outbound protocol message.
type frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	Ack   int         `json:"ack,omitempty"`
}

var errQuit = errors.New("quit")

const usage = `commands:
  create [name] [room]   open a room, optionally with a chosen id
  join <room> [name]     join an existing room
  ready                  place the default layout and declare ready
  start                  start the match (leader only)
  attack <row> <col>     fire at a cell, e.g. "attack 3 B"
  restart                reset the room for a new match
  over                   resync after a game over
  rooms                  list open rooms
  leave                  leave the current room
  quit`

type coord struct {
	Row  int    `json:"row"`
	Col  string `json:"col"`
	Part string `json:"part"`
}

type plane struct {
	Coordinates []coord `json:"coordinates"`
}

// defaultLayout is three vertical planes with the head on top.
func defaultLayout() []plane {
	column := func(col string, head int) plane {
		return plane{Coordinates: []coord{
			{Row: head, Col: col, Part: "head"},
			{Row: head + 1, Col: col, Part: "body"},
			{Row: head + 2, Col: col, Part: "body"},
			{Row: head + 3, Col: col, Part: "body"},
		}}
	}
	return []plane{column("B", 1), column("E", 3), column("H", 5)}
}

// parseCommand turns one input line into a frame. seq numbers the ack.
func parseCommand(line string, seq int) (*frame, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, nil
	}
	args := parts[1:]
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch strings.ToLower(parts[0]) {
	case "create":
		return &frame{Event: "createRoom", Data: map[string]string{"username": arg(0), "roomId": arg(1)}, Ack: seq}, nil
	case "join":
		if len(args) == 0 {
			return nil, errors.New("join needs a room id")
		}
		return &frame{Event: "joinRoom", Data: map[string]string{"roomId": arg(0), "username": arg(1)}, Ack: seq}, nil
	case "ready":
		return &frame{Event: "playerReady", Data: map[string]interface{}{"planes": defaultLayout()}, Ack: seq}, nil
	case "start":
		return &frame{Event: "startGame", Ack: seq}, nil
	case "attack", "a":
		if len(args) != 2 {
			return nil, errors.New("format: attack <row> <col>")
		}
		row, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad row %q", args[0])
		}
		pos := map[string]interface{}{"row": row, "col": strings.ToUpper(args[1])}
		return &frame{Event: "attack", Data: map[string]interface{}{"position": pos}}, nil
	case "restart":
		return &frame{Event: "restartGame", Data: map[string]string{"roomId": arg(0)}, Ack: seq}, nil
	case "over":
		return &frame{Event: "handleGameOver", Data: map[string]string{"roomId": arg(0)}}, nil
	case "rooms":
		return &frame{Event: "getRooms"}, nil
	case "leave":
		return &frame{Event: "leaveRoom", Ack: seq}, nil
	case "quit", "exit":
		return nil, errQuit
	default:
		return nil, fmt.Errorf("unknown command %q", parts[0])
	}
}
