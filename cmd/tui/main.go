package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/humanbelnik/livepoll/internal/model"
)

type WSEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type ActiveResponse struct {
	PollID *string     `json:"pollId"`
	Poll   *model.Poll `json:"poll"`
}

type HistoryResponse struct {
	Polls []*model.Poll `json:"polls"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	out        io.Writer

	wsConn *websocket.Conn
	wsMu   sync.Mutex

	mu       sync.Mutex
	username string
	role     model.Role
	pollID   model.PollID
	roster   []model.ChatUser
}

func NewClient(baseURL string, out io.Writer) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		out:        out,
	}
}

func (c *Client) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Client) makeRequest(method, path string, body any, dst any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(data))
	}

	req, err := http.NewRequest(method, c.baseURL+"/api"+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s: %s", resp.Status, e.Message)
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (c *Client) connectWebSocket() error {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %v", err)
	}

	scheme := "ws"
	if base.Scheme == "https" {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: base.Host, Path: "/ws"}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket connection failed: %v", err)
	}
	c.wsConn = conn

	go c.listenWebSocket()
	return nil
}

func (c *Client) emit(eventType string, payload any) error {
	if c.wsConn == nil {
		return fmt.Errorf("not connected, use 'join' first")
	}
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	return c.wsConn.WriteJSON(outbound{Type: eventType, Payload: payload})
}

func (c *Client) listenWebSocket() {
	for {
		var event WSEvent
		if err := c.wsConn.ReadJSON(&event); err != nil {
			c.printf("websocket closed: %v\n", err)
			return
		}

		switch event.Type {
		case "new_question":
			var poll model.Poll
			if json.Unmarshal(event.Payload, &poll) == nil {
				c.followPoll(poll.ID)
				c.printPoll("New question", &poll)
			}
		case "poll_updated":
			var poll model.Poll
			if json.Unmarshal(event.Payload, &poll) == nil {
				c.printPoll("Results", &poll)
			}
		case "poll_ended":
			c.printf("Everyone has answered. Poll ended.\n")
		case "join_success":
			c.printf("Joined the chat.\n")
		case "username_taken":
			c.printf("Username already taken, choose another with 'join'.\n")
		case "chat_users":
			var users []model.ChatUser
			if json.Unmarshal(event.Payload, &users) == nil {
				c.mu.Lock()
				c.roster = users
				c.mu.Unlock()
				names := make([]string, len(users))
				for i, u := range users {
					names[i] = fmt.Sprintf("%s (%s)", u.Username, u.Role)
				}
				c.printf("In chat: %s\n", strings.Join(names, ", "))
			}
		case "chat_message":
			var msg model.ChatMessage
			if json.Unmarshal(event.Payload, &msg) == nil {
				c.printf("[%s] %s: %s\n", msg.Timestamp.Local().Format("15:04"), msg.Username, msg.Message)
			}
		case "kicked_out":
			c.printf("You have been removed by the teacher.\n")
		case "error":
			c.printf("Server error: %s\n", string(event.Payload))
		}
	}
}

func (c *Client) followPoll(pollID model.PollID) {
	c.mu.Lock()
	c.pollID = pollID
	role := c.role
	c.mu.Unlock()

	if err := c.emit("join_poll", map[string]any{"pollId": pollID, "role": role}); err != nil {
		c.printf("failed to join poll: %v\n", err)
	}
}

func (c *Client) printPoll(title string, poll *model.Poll) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", title, poll.Question)
	total := len(poll.Responses)
	for i, o := range poll.Options {
		pct := 0
		if total > 0 {
			pct = o.Votes * 100 / total
		}
		fmt.Fprintf(&b, "  %d. %-20s %3d%% (%d)\n", i, o.Text, pct, o.Votes)
	}
	if poll.ExpiresAt != nil {
		fmt.Fprintf(&b, "  closes at %s\n", poll.ExpiresAt.Local().Format("15:04:05"))
	}
	c.printf("%s", b.String())
}

func (c *Client) Join(username string, role model.Role) error {
	if c.wsConn == nil {
		if err := c.connectWebSocket(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.username, c.role = username, role
	c.mu.Unlock()

	if err := c.emit("join_chat", map[string]any{"username": username, "role": role}); err != nil {
		return err
	}

	var active ActiveResponse
	if err := c.makeRequest(http.MethodGet, "/polls/active", nil, &active); err != nil {
		return err
	}
	if active.Poll != nil {
		c.followPoll(active.Poll.ID)
		c.printPoll("Current question", active.Poll)
	}
	return nil
}

func (c *Client) Create(question string, options []string, seconds int) error {
	body := map[string]any{
		"question":  question,
		"options":   options,
		"createdBy": c.username,
	}
	if seconds > 0 {
		body["expiresAt"] = time.Now().Add(time.Duration(seconds) * time.Second)
	}

	var poll model.Poll
	if err := c.makeRequest(http.MethodPost, "/polls/create", body, &poll); err != nil {
		return err
	}
	c.printf("Poll %s created.\n", poll.ID)
	return nil
}

func (c *Client) Vote(index int) error {
	c.mu.Lock()
	pollID, username := c.pollID, c.username
	c.mu.Unlock()
	if pollID == model.EmptyPollID {
		return fmt.Errorf("no active poll")
	}

	var poll model.Poll
	body := map[string]any{"studentId": username, "selectedOptionIndex": index}
	if err := c.makeRequest(http.MethodPost, "/polls/"+pollID+"/vote", body, &poll); err != nil {
		return err
	}
	return c.emit("vote_cast", map[string]any{"pollId": pollID, "studentId": username})
}

func (c *Client) Kick(username string) error {
	c.mu.Lock()
	var target model.ConnID
	for _, u := range c.roster {
		if strings.EqualFold(u.Username, username) {
			target = u.SocketID
		}
	}
	c.mu.Unlock()

	if target == "" {
		return fmt.Errorf("no such user: %s", username)
	}
	return c.emit("kick_user", map[string]any{"socketId": target})
}

func (c *Client) Status() error {
	var status model.Status
	if err := c.makeRequest(http.MethodGet, "/polls/status", nil, &status); err != nil {
		return err
	}
	if !status.Active {
		c.printf("No poll yet.\n")
		return nil
	}
	c.printf("%s: %d/%d voted, expired=%t, all voted=%t\n",
		status.Question, status.TotalVotes, status.TotalStudents, status.Expired, status.AllVoted)
	return nil
}

func (c *Client) History() error {
	var history HistoryResponse
	if err := c.makeRequest(http.MethodGet, "/polls/history", nil, &history); err != nil {
		return err
	}
	for i, p := range history.Polls {
		c.printPoll(fmt.Sprintf("#%d", i+1), p)
	}
	return nil
}

const help = `commands:
  join <name> <student|teacher>
  create <question> | <option> | <option> [| <seconds>]
  vote <option number>
  say <message>
  kick <name>
  status | history | help | quit
`

func (c *Client) handle(line string) (bool, error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
		return true, nil
	case "quit", "exit":
		return false, nil
	case "help":
		c.printf("%s", help)
	case "join":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return true, fmt.Errorf("usage: join <name> <student|teacher>")
		}
		return true, c.Join(fields[0], model.Role(fields[1]))
	case "create":
		parts := strings.Split(rest, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		seconds := 0
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil && len(parts) > 3 {
			seconds = n
			parts = parts[:len(parts)-1]
		}
		if len(parts) < 3 {
			return true, fmt.Errorf("usage: create <question> | <option> | <option> [| <seconds>]")
		}
		return true, c.Create(parts[0], parts[1:], seconds)
	case "vote":
		index, err := strconv.Atoi(rest)
		if err != nil {
			return true, fmt.Errorf("usage: vote <option number>")
		}
		return true, c.Vote(index)
	case "say":
		return true, c.emit("chat_message", map[string]any{"message": rest})
	case "kick":
		return true, c.Kick(rest)
	case "status":
		return true, c.Status()
	case "history":
		return true, c.History()
	default:
		return true, fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	return true, nil
}

func main() {
	addr := flag.String("addr", "http://localhost:5001", "livepoll server address")
	flag.Parse()

	client := NewClient(*addr, os.Stdout)
	client.printf("%s", help)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		more, err := client.handle(scanner.Text())
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
		if !more {
			return
		}
	}
}
