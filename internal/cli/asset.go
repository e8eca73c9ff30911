package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sasset/core/internal/models"
	"github.com/sasset/core/internal/repositories/revisions"
	"github.com/sasset/core/internal/services"
)

type assetView struct {
	Identifier string            `json:"identifier"`
	Asset      *models.Asset     `json:"asset"`
	Attributes []models.AttrDump `json:"attributes"`
}

func viewOf(a *models.Asset) assetView {
	return assetView{Identifier: a.Identifier(), Asset: a, Attributes: a.DumpAttrs()}
}

func (a *App) AssetCreate(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "partition id"); err != nil {
		return err
	}
	attrs, err := ParseAttrs(args[1:])
	if err != nil {
		return usageError("%v", err)
	}

	created, err := a.assets.Create(ctx, args[0], attrs)
	if err != nil {
		return err
	}
	return a.printJSON(created)
}

func (a *App) AssetGet(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "asset id"); err != nil {
		return err
	}
	asset, err := a.assets.GetAsset(ctx, args[0])
	if err != nil {
		return err
	}
	return a.printJSON(viewOf(asset))
}

func (a *App) AssetFind(ctx context.Context, args []string) error {
	if err := needArgs(args, 2, "partition id and identifier"); err != nil {
		return err
	}
	ids := make([]any, 0, len(args)-1)
	for _, raw := range args[1:] {
		ids = append(ids, parseValue(raw))
	}

	found, err := a.assets.Find(ctx, services.IdentifierQuery{PartitionID: args[0], Identifiers: ids})
	if err != nil {
		return err
	}
	out := make(map[string]assetView, len(found))
	for k, v := range found {
		out[k] = viewOf(v)
	}
	return a.printJSON(out)
}

func (a *App) AssetLock(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "asset id"); err != nil {
		return err
	}
	asset, err := a.assets.GetAsset(ctx, args[0])
	if err != nil {
		return err
	}

	var opts services.LockOptions
	if asset.IsSecured() {
		if opts.Current, err = GetPassword("Current password", a.out); err != nil {
			return err
		}
	}
	if opts.Password, err = GetPassword("New password (empty to lock without one)", a.out); err != nil {
		return err
	}

	asset, err = a.assets.Lock(ctx, asset, opts)
	if err != nil {
		return err
	}
	return a.printJSON(viewOf(asset))
}

func (a *App) AssetUnlock(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "asset id"); err != nil {
		return err
	}
	asset, err := a.assets.GetAsset(ctx, args[0])
	if err != nil {
		return err
	}

	var opts services.UnlockOptions
	if asset.IsSecured() {
		if opts.Password, err = GetPassword("Password", a.out); err != nil {
			return err
		}
	}

	asset, err = a.assets.Unlock(ctx, asset, opts)
	if err != nil {
		return err
	}
	return a.printJSON(viewOf(asset))
}

func (a *App) AssetDelete(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "asset id"); err != nil {
		return err
	}
	res, err := a.assets.DeleteAssets(ctx, services.DeleteOptions{AssetIDs: args})
	if err != nil {
		return err
	}
	return a.printJSON(res)
}

func (a *App) AssetRevisions(ctx context.Context, args []string) error {
	if err := needArgs(args, 1, "asset id"); err != nil {
		return err
	}
	q := services.RevisionQuery{Sort: revisions.Sort{Field: "revision", Desc: true}}
	if len(args) > 1 {
		limit, err := strconv.Atoi(args[1])
		if err != nil || limit < 0 {
			return usageError("invalid limit %q", args[1])
		}
		q.Limit = limit
	}

	asset, err := a.assets.GetAsset(ctx, args[0])
	if err != nil {
		return err
	}
	revs, err := a.assets.Revisions(ctx, asset, q)
	if err != nil {
		return err
	}
	return a.printJSON(revs)
}

func (a *App) AssetArchive(ctx context.Context, args []string) error {
	if err := needArgs(args, 2, "asset id and revision"); err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return usageError("invalid revision %q", args[1])
	}

	asset, err := a.assets.GetAsset(ctx, args[0])
	if err != nil {
		return err
	}
	url, err := a.assets.ArchiveRevision(ctx, asset, n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, url)
	return err
}
