package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/namanNagelia/canvasAgents/api"
	"github.com/namanNagelia/canvasAgents/chat"
	"github.com/namanNagelia/canvasAgents/model"
	"github.com/namanNagelia/canvasAgents/normalize"
	"github.com/namanNagelia/canvasAgents/render"
	"github.com/namanNagelia/canvasAgents/transcript"
)

var (
	loginEmail   string
	registerName string
	renderAgent  string
	askSession   string
	askAgent     string
	askFiles     []string
)

// sessionsCmd prints the session history as plain text (for scripting)
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List chat sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		records, err := client.SessionHistory(ctx)
		if err != nil {
			return authHint(err)
		}
		sessions := transcript.Summarize(records)
		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
			return nil
		}
		for _, s := range sessions {
			when := "-"
			if t := s.LastActive(); !t.IsZero() {
				when = t.Local().Format("01-02 15:04")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-36s │ %s │ %-11s │ %s\n", s.ID, s.ShortID, when, s.Preview)
		}
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the bearer token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		email := loginEmail
		if email == "" {
			email = prompt(cmd, in, "Email: ")
		}
		password := prompt(cmd, in, "Password: ")

		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		user, err := client.Login(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(user))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		if err := client.Logout(ctx); err != nil {
			// the local token is gone either way
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		if cache := openCache(); cache != nil {
			defer cache.Close()
			if err := cache.Forget(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account, then log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := bufio.NewReader(cmd.InOrStdin())
		name := registerName
		if name == "" {
			name = prompt(cmd, in, "Name: ")
		}
		email := loginEmail
		if email == "" {
			email = prompt(cmd, in, "Email: ")
		}
		password := prompt(cmd, in, "Password: ")

		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		if err := client.Register(ctx, name, email, password); err != nil {
			return err
		}
		user, err := client.Login(ctx, email, password)
		if err != nil {
			return fmt.Errorf("registered, but login failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", displayName(user))
		return nil
	},
}

// renderCmd renders one agent payload without talking to the backend
var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render an agent response payload from a file or stdin",
	Long: `Reads one agent response (a JSON object or plain text), normalizes it for the
given agent and prints it the way the interactive client would.

Example:
  canvas render --agent diagram response.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
		)
		if len(args) == 1 && args[0] != "-" {
			raw, err = os.ReadFile(args[0])
		} else {
			raw, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}

		msg := model.Message{
			ID:      "render",
			Role:    model.RoleAI,
			Agent:   model.AgentKind(renderAgent).Normalized(),
			Content: decodePayload(raw),
		}

		diagrams := newDiagramCache()
		ctx, cancel := signalContext()
		defer cancel()
		if dd, ok := normalize.Normalize(msg).(normalize.DiagramDisplay); ok && dd.Diagram.HasDiagram() {
			diagrams.Render(ctx, dd.Diagram.Code)
		}

		r := newRenderer(diagrams)
		fmt.Fprintln(cmd.OutOrStdout(), r.Message(msg, render.View{}))
		return nil
	},
}

// askCmd sends one message and prints the agent's answer
var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message to an agent and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		sessionID := askSession
		if sessionID == "" {
			if sessionID, err = client.CreateSession(ctx); err != nil {
				return authHint(err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "session %s\n", sessionID)
		}

		agent := model.AgentKind(askAgent)
		if askAgent == "" {
			agent = cfg.DefaultAgent()
		}
		if _, ok := model.LookupAgent(agent); !ok {
			return fmt.Errorf("unknown agent %q", askAgent)
		}

		s := chat.New()
		s.Load(sessionID, nil)
		sub, err := s.Begin(strings.Join(args, " "), agent.Normalized(), askFiles)
		if err != nil {
			return err
		}
		msgs, err := chat.Submit(ctx, client, sub, func() { s.Posted(sub) })
		if err != nil {
			s.Fail(sub, err)
			return authHint(err)
		}
		s.Settle(sub, msgs)

		last, ok := lastAnswer(s.Messages())
		if !ok {
			return errors.New("backend returned no answer")
		}
		diagrams := newDiagramCache()
		if dd, ok := normalize.Normalize(last).(normalize.DiagramDisplay); ok && dd.Diagram.HasDiagram() {
			diagrams.Render(ctx, dd.Diagram.Code)
		}
		fmt.Fprintln(cmd.OutOrStdout(), newRenderer(diagrams).Message(last, render.View{}))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	renderCmd.Flags().StringVarP(&renderAgent, "agent", "a", string(model.AgentGeneral), "agent that produced the payload")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id (a new session when empty)")
	askCmd.Flags().StringVarP(&askAgent, "agent", "a", "", "agent to ask (default from config)")
	askCmd.Flags().StringSliceVar(&askFiles, "file", nil, "uploaded file id to attach (repeatable)")
}

// decodePayload accepts a JSON object or string; anything else is text.
func decodePayload(raw []byte) model.Content {
	trimmed := bytes.TrimSpace(raw)
	if json.Valid(trimmed) {
		var c model.Content
		if err := json.Unmarshal(trimmed, &c); err == nil {
			return c
		}
	}
	return model.TextContent(string(raw))
}

func lastAnswer(msgs []model.Message) (model.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAI && msgs[i].Status == model.StatusSettled {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) string {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func displayName(u api.User) string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return "user"
}

func authHint(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("%w (run `canvas login`)", err)
	}
	return err
}
