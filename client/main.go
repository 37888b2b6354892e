package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeHeartbeat   = 1
	MsgTypeCreateRoom  = 101
	MsgTypeJoinRoom    = 102
	MsgTypeLeaveRoom   = 103
	MsgTypeToggleReady = 104
	MsgTypeStartGame   = 105
	MsgTypeQuestion    = 201
	MsgTypeGuess       = 202
	MsgTypeHint        = 203
	MsgTypeRoomState   = 301
)

// sendMutex serializes writes; the heartbeat goroutine and the
// command loop share the connection.
var sendMutex sync.Mutex

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	sendMutex.Lock()
	defer sendMutex.Unlock()

	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendJSON(c *websocket.Conn, msgID uint16, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return send(c, msgID, data)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	// Heartbeat loop keeps the server from dropping an idle connection.
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := send(c, MsgTypeHeartbeat, nil); err != nil {
					return
				}
			}
		}
	}()

	log.Println("Commands: create <name> | join <room> <name> | ready | start | ask <问题> | guess <汤底> | hint | state | leave")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}

			parts := strings.SplitN(text, " ", 3)
			var err error
			switch parts[0] {
			case "create":
				if len(parts) < 2 {
					log.Println("usage: create <name>")
					continue
				}
				err = sendJSON(c, MsgTypeCreateRoom, map[string]interface{}{"host_name": parts[1]})
			case "join":
				if len(parts) < 3 {
					log.Println("usage: join <room> <name>")
					continue
				}
				err = sendJSON(c, MsgTypeJoinRoom, map[string]string{"room_id": parts[1], "player_name": parts[2]})
			case "ready":
				err = send(c, MsgTypeToggleReady, []byte{})
			case "start":
				err = send(c, MsgTypeStartGame, []byte{})
			case "ask":
				if len(parts) < 2 {
					log.Println("usage: ask <问题>")
					continue
				}
				err = sendJSON(c, MsgTypeQuestion, map[string]string{"text": strings.Join(parts[1:], " ")})
			case "guess":
				if len(parts) < 2 {
					log.Println("usage: guess <汤底>")
					continue
				}
				err = sendJSON(c, MsgTypeGuess, map[string]string{"text": strings.Join(parts[1:], " ")})
			case "hint":
				err = send(c, MsgTypeHint, []byte{})
			case "state":
				err = send(c, MsgTypeRoomState, []byte{})
			case "leave":
				err = send(c, MsgTypeLeaveRoom, []byte{})
			default:
				log.Printf("Unknown command: %s", parts[0])
				continue
			}
			if err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", parts[0])
		}
	}
}
