// Command savemigrate inspects and repairs C8's on-disk save tree and
// mirrors it into the player_saves/world_saves Postgres tables, grounded
// in the teacher's sqlconv/portalconv/teleconv operator-tool pattern:
// a small flag-driven CLI with one subcommand per maintenance task.
//
// Usage:
//
//	go run ./cmd/savemigrate <command> -savedir path [-dsn url]
//
// Commands: inspect, repair, migrate
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfrontier/authority/internal/save"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: savemigrate <inspect|repair|migrate> -savedir path [-dsn url]")
		os.Exit(2)
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	saveDir := fs.String("savedir", "saves", "path to the on-disk save tree")
	dsn := fs.String("dsn", "", "postgres DSN (required for migrate)")
	fs.Parse(os.Args[2:])

	var err error
	switch cmd {
	case "inspect":
		err = runInspect(*saveDir)
	case "repair":
		err = runRepair(*saveDir)
	case "migrate":
		if *dsn == "" {
			err = fmt.Errorf("migrate requires -dsn")
			break
		}
		err = runMigrate(*saveDir, *dsn)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "savemigrate: %v\n", err)
		os.Exit(1)
	}
}

// corruptFile names a save JSON file that failed to parse, and the newest
// backup (if any) that could replace it.
type corruptFile struct {
	path       string
	bestBackup string
}

// runInspect walks the save tree's players/ and worlds/ directories,
// reporting any file that fails to unmarshal as its declared save type.
func runInspect(dir string) error {
	bad, err := scanForCorruption(dir)
	if err != nil {
		return err
	}
	if len(bad) == 0 {
		fmt.Println("no corrupt save files found")
		return nil
	}
	for _, b := range bad {
		backup := b.bestBackup
		if backup == "" {
			backup = "(no backup available)"
		}
		fmt.Printf("%s: corrupt, newest backup: %s\n", b.path, backup)
	}
	return fmt.Errorf("%d corrupt save file(s) found", len(bad))
}

// runRepair overwrites every corrupt primary save file with its newest
// valid backup, following the same "backups/<id>.v<version>.bak" naming
// convention save.Store uses when it rotates backups on write.
func runRepair(dir string) error {
	bad, err := scanForCorruption(dir)
	if err != nil {
		return err
	}
	repaired := 0
	for _, b := range bad {
		if b.bestBackup == "" {
			fmt.Printf("%s: no backup available, skipping\n", b.path)
			continue
		}
		data, err := os.ReadFile(b.bestBackup)
		if err != nil {
			return fmt.Errorf("read backup %s: %w", b.bestBackup, err)
		}
		if err := os.WriteFile(b.path, data, 0o644); err != nil {
			return fmt.Errorf("restore %s: %w", b.path, err)
		}
		fmt.Printf("%s: restored from %s\n", b.path, b.bestBackup)
		repaired++
	}
	fmt.Printf("repaired %d/%d corrupt file(s)\n", repaired, len(bad))
	return nil
}

// runMigrate copies every valid player/world save into the Postgres
// mirror tables, the one-time bridge spec.md §6's concretized persistence
// layout calls for when standing up the Postgres-backed deployment.
func runMigrate(dir, dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	playersMigrated, err := migratePlayers(ctx, pool, filepath.Join(dir, "players"))
	if err != nil {
		return err
	}
	worldsMigrated, err := migrateWorlds(ctx, pool, filepath.Join(dir, "worlds"))
	if err != nil {
		return err
	}
	fmt.Printf("migrated %d player save(s), %d world save(s)\n", playersMigrated, worldsMigrated)
	return nil
}

func migratePlayers(ctx context.Context, pool *pgxpool.Pool, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		var ps save.PlayerSave
		data, err := os.ReadFile(path)
		if err != nil {
			return count, fmt.Errorf("read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &ps); err != nil {
			fmt.Printf("%s: skipping, failed to parse (%v)\n", path, err)
			continue
		}

		payload, err := json.Marshal(ps)
		if err != nil {
			return count, fmt.Errorf("marshal %s: %w", path, err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO player_saves (player_id, save_version, payload, saved_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (player_id) DO UPDATE
			SET save_version = EXCLUDED.save_version,
			    payload = EXCLUDED.payload,
			    saved_at = EXCLUDED.saved_at
			WHERE player_saves.save_version < EXCLUDED.save_version`,
			ps.PlayerID, ps.Version, payload, ps.SavedAt)
		if err != nil {
			return count, fmt.Errorf("upsert player %s: %w", ps.PlayerID, err)
		}
		count++
	}
	return count, nil
}

func migrateWorlds(ctx context.Context, pool *pgxpool.Pool, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		var ws save.WorldSave
		data, err := os.ReadFile(path)
		if err != nil {
			return count, fmt.Errorf("read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &ws); err != nil {
			fmt.Printf("%s: skipping, failed to parse (%v)\n", path, err)
			continue
		}

		payload, err := json.Marshal(ws)
		if err != nil {
			return count, fmt.Errorf("marshal %s: %w", path, err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO world_saves (world_id, save_version, payload, saved_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (world_id) DO UPDATE
			SET save_version = EXCLUDED.save_version,
			    payload = EXCLUDED.payload,
			    saved_at = EXCLUDED.saved_at
			WHERE world_saves.save_version < EXCLUDED.save_version`,
			ws.WorldID, ws.Version, payload, ws.SavedAt)
		if err != nil {
			return count, fmt.Errorf("upsert world %s: %w", ws.WorldID, err)
		}
		count++
	}
	return count, nil
}

var backupNameRe = regexp.MustCompile(`^(.+)\.v(\d+)\.bak$`)

func scanForCorruption(dir string) ([]corruptFile, error) {
	var bad []corruptFile
	for _, kind := range []string{"players", "worlds"} {
		sub := filepath.Join(dir, kind)
		entries, err := os.ReadDir(sub)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", sub, err)
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			path := filepath.Join(sub, e.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			if json.Valid(data) {
				continue
			}
			id := strings.TrimSuffix(e.Name(), ".json")
			backup, err := newestBackup(filepath.Join(sub, "backups"), id)
			if err != nil {
				return nil, err
			}
			bad = append(bad, corruptFile{path: path, bestBackup: backup})
		}
	}
	return bad, nil
}

// newestBackup finds the highest-versioned "<id>.v<n>.bak" file for id,
// matching save.Store's backup naming convention.
func newestBackup(backupDir, id string) (string, error) {
	entries, err := os.ReadDir(backupDir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", backupDir, err)
	}

	bestVersion := int64(-1)
	bestPath := ""
	for _, e := range entries {
		m := backupNameRe.FindStringSubmatch(e.Name())
		if m == nil || m[1] != id {
			continue
		}
		v, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		if v > bestVersion {
			bestVersion = v
			bestPath = filepath.Join(backupDir, e.Name())
		}
	}
	return bestPath, nil
}
