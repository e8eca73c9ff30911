package cli

import (
	"context"
	"errors"
	"fmt"
)

// ErrUsage is returned for an unknown command or missing arguments.
var ErrUsage = errors.New("usage")

const usage = `usage: sasset [flags] <command> [args]

commands:
  migrate                                   apply database migrations
  status                                    show the database connection state
  user create <username> [first] [last]     create an account (prompts for password)
  user find <username>                      show an account
  login <username>                          print an access token (prompts for password)
  whoami                                    show the account of the access token
  partition create <name> <primary> [field...]
  setting create <name> [value] [type]
  setting get <name>
  setting list [type]
  asset create <partition> [name=value...]
  asset get <id>
  asset find <partition> <identifier...>
  asset lock <id>                           prompts for an optional password
  asset unlock <id>
  asset delete <id...>
  asset revisions <id> [limit]
  asset archive <id> <revision>

flags:
  -token string   access token (default $SASSET_TOKEN)`

// commander is the command surface dispatch needs. App implements it; tests
// use a stub.
type commander interface {
	Migrate(ctx context.Context) error
	Status(ctx context.Context) error
	UserCreate(ctx context.Context, args []string) error
	UserFind(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Whoami(ctx context.Context) error
	PartitionCreate(ctx context.Context, args []string) error
	SettingCreate(ctx context.Context, args []string) error
	SettingGet(ctx context.Context, args []string) error
	SettingList(ctx context.Context, args []string) error
	AssetCreate(ctx context.Context, args []string) error
	AssetGet(ctx context.Context, args []string) error
	AssetFind(ctx context.Context, args []string) error
	AssetLock(ctx context.Context, args []string) error
	AssetUnlock(ctx context.Context, args []string) error
	AssetDelete(ctx context.Context, args []string) error
	AssetRevisions(ctx context.Context, args []string) error
	AssetArchive(ctx context.Context, args []string) error
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s\n\n%s", ErrUsage, fmt.Sprintf(format, args...), usage)
}

// dispatch routes positional arguments to a command.
func dispatch(ctx context.Context, c commander, args []string) error {
	if len(args) == 0 {
		return usageError("no command given")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		return c.Migrate(ctx)
	case "status":
		return c.Status(ctx)
	case "login":
		return c.Login(ctx, rest)
	case "whoami":
		return c.Whoami(ctx)
	case "user", "partition", "setting", "asset":
	default:
		return usageError("unknown command %q", cmd)
	}

	if len(rest) == 0 {
		return usageError("%s needs a subcommand", cmd)
	}
	sub, rest := rest[0], rest[1:]

	switch cmd + " " + sub {
	case "user create":
		return c.UserCreate(ctx, rest)
	case "user find":
		return c.UserFind(ctx, rest)
	case "partition create":
		return c.PartitionCreate(ctx, rest)
	case "setting create":
		return c.SettingCreate(ctx, rest)
	case "setting get":
		return c.SettingGet(ctx, rest)
	case "setting list":
		return c.SettingList(ctx, rest)
	case "asset create":
		return c.AssetCreate(ctx, rest)
	case "asset get":
		return c.AssetGet(ctx, rest)
	case "asset find":
		return c.AssetFind(ctx, rest)
	case "asset lock":
		return c.AssetLock(ctx, rest)
	case "asset unlock":
		return c.AssetUnlock(ctx, rest)
	case "asset delete":
		return c.AssetDelete(ctx, rest)
	case "asset revisions":
		return c.AssetRevisions(ctx, rest)
	case "asset archive":
		return c.AssetArchive(ctx, rest)
	}
	return usageError("unknown command %q", cmd+" "+sub)
}

func needArgs(args []string, n int, what string) error {
	if len(args) < n {
		return usageError("missing %s", what)
	}
	return nil
}
