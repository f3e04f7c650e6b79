package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
)

var ErrUnknownCommand = errors.New("unknown command")

// AuthClient is the part of client.GRPCClient the CLI uses.
type AuthClient interface {
	Register(ctx context.Context, username, email, fullName, password string) (*pb.Profile, error)
	Login(ctx context.Context, username, password string) (*pb.LoginResponse, error)
	Me(ctx context.Context) (*pb.Profile, error)
	Validate(ctx context.Context) (*pb.ValidateResponse, error)
	Ping(ctx context.Context) error
	SetAccessToken(token string)
	Close() error
}

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type App struct {
	config *config.Config
	client AuthClient
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	apiClient, err := client.NewAuthClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return newApp(c, apiClient, in, out), nil
}

func newApp(c *config.Config, ac AuthClient, in io.Reader, out io.Writer) *App {
	if c.AccessToken != "" {
		ac.SetAccessToken(c.AccessToken)
	}
	return &App{config: c, client: ac, reader: bufio.NewReader(in), out: out}
}

func (a *App) Close() error {
	return a.client.Close()
}

// Run executes a single command. args[0] names the command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return fmt.Errorf("%w: none given", ErrUnknownCommand)
	}

	cmd, rest := args[0], args[1:]

	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	switch cmd {
	case "register":
		return a.Register(ctx, rest)
	case "login":
		return a.Login(ctx, rest)
	case "me":
		return a.Me(ctx)
	case "validate":
		return a.Validate(ctx)
	case "ping":
		return a.Ping(ctx)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "usage: gophauth-client [-a addr] [-c config.json] [-token t] [-timeout s] <register|login|me|validate|ping> [username]")
}

// username takes the first positional argument or prompts for it.
func (a *App) username(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	return getSimpleText(a.reader, "Username", a.out)
}

func (a *App) Register(ctx context.Context, args []string) error {
	username, err := a.username(args)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email (optional)", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Full name (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	profile, err := a.client.Register(ctx, username, email, fullName, string(password))
	if err != nil {
		return err
	}

	return a.print(&pb.RegisterResponse{Message: "User registered successfully", User: profile})
}

func (a *App) Login(ctx context.Context, args []string) error {
	username, err := a.username(args)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return err
	}

	return a.print(resp)
}

func (a *App) Me(ctx context.Context) error {
	p, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	return a.print(p)
}

func (a *App) Validate(ctx context.Context) error {
	v, err := a.client.Validate(ctx)
	if err != nil {
		return err
	}
	return a.print(v)
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(a.out, "OK")
	return err
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
