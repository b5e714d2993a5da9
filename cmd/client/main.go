package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/kiryu-dev/five-in-a-row/pkg/utils"
	"github.com/pkg/errors"
)

const usage = `commands:
  x y     place a stone (also during the opening)
  black   take black in the opening
  white   take white in the opening
  more    place two more opening stones
  next    start the next round
  new     start a new match
  quit    leave the game`

var errQuit = errors.New("quit")

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	size := flag.Int("size", domain.DefaultBoardSize, "board size")
	difficulty := flag.String("difficulty", domain.Intermediate.String(), "beginner, intermediate, expert or master")
	swap2 := flag.Bool("swap2", false, "negotiate colors with the swap2 opening")
	color := flag.String("color", "black", "your color (with -swap2: black makes you the opener)")
	resume := flag.String("resume", "", "handle of a session to resume")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/game"}
	header := http.Header{}
	if *resume != "" {
		header.Set(domain.ClientUuidHeader, *resume)
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.Fatal("dial: " + err.Error())
	}
	defer func() {
		_ = conn.Close()
	}()
	c := newClient(conn)
	go func() {
		if err := c.handleMessages(); err != nil {
			log.Println(err)
		}
		os.Exit(0)
	}()
	if *resume == "" {
		humanColor := domain.Black
		if *color == "white" {
			humanColor = domain.White
		}
		err := c.send(domain.Message{
			Type: domain.StartSession,
			Payload: domain.StartSessionPayload{
				BoardSize:  *size,
				Difficulty: *difficulty,
				Swap2:      *swap2,
				HumanColor: humanColor,
			},
		})
		if err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println(usage)
	if err := c.handleInput(); err != nil && !errors.Is(err, errQuit) {
		log.Fatal(err)
	}
}

type client struct {
	conn     *websocket.Conn
	scanner  *bufio.Scanner
	mu       *sync.Mutex
	snapshot domain.SessionSnapshot
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn:    conn,
		scanner: bufio.NewScanner(os.Stdin),
		mu:      &sync.Mutex{},
	}
}

func (c *client) handleMessages() error {
	for {
		msg := new(domain.Message)
		if err := c.conn.ReadJSON(msg); err != nil {
			return errors.WithMessage(err, "read json msg")
		}
		switch msg.Type {
		case domain.SessionStarted:
			v, err := utils.DecodePayload[domain.SessionStartedPayload](msg.Payload)
			if err != nil {
				return errors.WithMessage(err, "decode payload to 'SessionStartedPayload' type")
			}
			c.render(v.Snapshot)
			fmt.Printf("session %s (reconnect with -resume %s)\n", v.Handle, v.Handle)
		case domain.BoardUpdate:
			v, err := utils.DecodePayload[domain.BoardUpdatePayload](msg.Payload)
			if err != nil {
				return errors.WithMessage(err, "decode payload to 'BoardUpdatePayload' type")
			}
			c.render(v.Snapshot)
			if v.ByBot && v.Round != nil {
				fmt.Printf("bot played %d %d\n", v.Round.Move.X, v.Round.Move.Y)
			}
		case domain.RoundResult:
			v, err := utils.DecodePayload[domain.RoundEvent](msg.Payload)
			if err != nil {
				return errors.WithMessage(err, "decode payload to 'RoundEvent' type")
			}
			printRoundResult(v)
		case domain.ProtocolUpdate:
			v, err := utils.DecodePayload[domain.ProtocolEvent](msg.Payload)
			if err != nil {
				return errors.WithMessage(err, "decode payload to 'ProtocolEvent' type")
			}
			if v.Assignment != nil {
				fmt.Printf("opening resolved: opener plays %v, responder plays %v\n",
					v.Assignment.OpenerColor, v.Assignment.ResponderColor)
			}
		case domain.BotThinking:
			fmt.Println("bot is thinking...")
		case domain.ErrorMessage:
			v, err := utils.DecodePayload[domain.ErrorPayload](msg.Payload)
			if err != nil {
				return errors.WithMessage(err, "decode payload to 'ErrorPayload' type")
			}
			fmt.Println("error: " + v.Message)
		}
	}
}

func (c *client) handleInput() error {
	for c.scanner.Scan() {
		fields := strings.Fields(strings.ToLower(c.scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		msg, err := c.parse(fields)
		switch {
		case errors.Is(err, errQuit):
			return err
		case err != nil:
			fmt.Println(err)
			continue
		}
		if err := c.send(msg); err != nil {
			return err
		}
	}
	return c.scanner.Err()
}

func (c *client) parse(fields []string) (domain.Message, error) {
	choices := map[string]domain.ChoiceKind{
		"black": domain.TakeBlack,
		"white": domain.TakeWhite,
		"more":  domain.PlaceMore,
	}
	switch fields[0] {
	case "quit":
		return domain.Message{}, errQuit
	case "next":
		return domain.Message{Type: domain.ResetRoundRequest}, nil
	case "new":
		return domain.Message{Type: domain.ResetMatchRequest}, nil
	}
	if choice, ok := choices[fields[0]]; ok {
		return domain.Message{
			Type:    domain.SubmitProtocol,
			Payload: domain.ProtocolActionPayload{Choice: &choice},
		}, nil
	}
	if len(fields) != 2 {
		return domain.Message{}, errors.New(usage)
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return domain.Message{}, errors.WithMessage(err, "x")
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return domain.Message{}, errors.WithMessage(err, "y")
	}
	if c.inOpening() {
		return domain.Message{
			Type:    domain.SubmitProtocol,
			Payload: domain.ProtocolActionPayload{Place: &domain.Coord{X: x, Y: y}},
		}, nil
	}
	return domain.Message{Type: domain.HumanMove, Payload: domain.HumanMovePayload{X: x, Y: y}}, nil
}

func (c *client) send(msg domain.Message) error {
	if err := c.conn.WriteJSON(msg); err != nil {
		return errors.WithMessage(err, "write json msg")
	}
	return nil
}

func (c *client) inOpening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.snapshot.Protocol
	return p != nil && p.Phase != domain.Resolved
}

func (c *client) render(snapshot domain.SessionSnapshot) {
	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()
	size := snapshot.Settings.BoardSize
	board, err := domain.BoardFromCells(size, snapshot.Cells)
	if err != nil {
		fmt.Println(err)
		return
	}
	if p := snapshot.Protocol; p != nil && p.Phase != domain.Resolved {
		for _, s := range p.Stones {
			_ = board.Place(s.Coord, s.Stone)
		}
	}
	fmt.Printf("\033[H\033[J")
	fmt.Print("   ")
	for x := 0; x < size; x++ {
		fmt.Printf("%2d", x)
	}
	fmt.Println()
	for y, row := range strings.Split(strings.TrimSuffix(board.String(), "\n"), "\n") {
		fmt.Printf("%2d ", y)
		for _, cell := range row {
			fmt.Printf(" %c", cell)
		}
		fmt.Println()
	}
	m := snapshot.Match
	fmt.Printf("black %d, white %d, draws %d (first to %d)\n", m.BlackWins, m.WhiteWins, m.Draws, m.WinThreshold)
	if p := snapshot.Protocol; p != nil && p.Phase != domain.Resolved {
		fmt.Printf("opening: %v, %v to act (you are the %v)\n", p.Phase, p.Actor, snapshot.HumanSeat)
		return
	}
	if snapshot.Match.IsOver() {
		fmt.Printf("match won by %v; type 'new' to play again\n", m.Winner)
		return
	}
	if snapshot.Outcome.IsTerminal() {
		fmt.Println("round over; type 'next' to continue")
		return
	}
	if !snapshot.BotToAct {
		fmt.Printf("your move (%v): ", snapshot.ToMove)
	}
}

func printRoundResult(event domain.RoundEvent) {
	switch event.Kind {
	case domain.RoundWon:
		fmt.Printf("round won by %v along", event.Winner)
		for _, c := range event.Line {
			fmt.Printf(" (%d %d)", c.X, c.Y)
		}
		fmt.Println()
	case domain.RoundDraw:
		fmt.Println("round drawn")
	}
	if event.MatchWinner != domain.Empty {
		fmt.Printf("match won by %v\n", event.MatchWinner)
	}
}
