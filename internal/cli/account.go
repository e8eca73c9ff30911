package cli

import (
	"context"
	"fmt"

	"github.com/sasset/core/internal/account"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/models"
	"github.com/sasset/core/internal/services"
)

func (a *App) UserCreate(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "username"); err != nil {
		return err
	}

	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	acc, err := a.accounts.CreateUser(ctx, services.CreateUserInput{
		Username: args[0],
		Name:     models.NameFromSlice(args[1:]),
		Password: password,
	})
	if err != nil {
		return err
	}
	return a.printJSON(acc)
}

func (a *App) UserFind(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "username"); err != nil {
		return err
	}
	acc, err := a.accounts.FindUserByUsername(ctx, args[0])
	if err != nil {
		return err
	}
	return a.printJSON(acc)
}

func (a *App) Login(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "username"); err != nil {
		return err
	}

	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	token, err := a.accounts.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, token)
	return err
}

// PartitionCreate seeds a partition with its fields; the first field is the
// primary one.
// Whoami prints the account the request runs as. Without a token it fails
// with common.ErrNoAccount.
func (a *App) Whoami(ctx context.Context) error {
	data, err := account.Must(ctx)
	if err != nil {
		return fmt.Errorf("no account, run login and pass -token: %w", err)
	}
	return a.printJSON(data)
}

func (a *App) PartitionCreate(ctx context.Context, args []string) error {
	if err := needArgs(args, 2, "partition name and primary field"); err != nil {
		return err
	}
	var p *models.Partition
	err := a.conn.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.manager.Partitions(tx)
		var err error
		p, err = repo.Create(ctx, &models.Partition{Name: args[0]})
		if err != nil {
			return err
		}
		for i, name := range args[1:] {
			f, err := repo.AddField(ctx, &models.Field{
				PartitionID: p.ID, Name: name, Type: "string", Primary: i == 0,
			})
			if err != nil {
				return err
			}
			p.Fields = append(p.Fields, f)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error creating partition: %w", err)
	}
	return a.printJSON(p)
}
