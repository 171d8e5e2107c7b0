package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/google/uuid"

	"sanctum/internal/apperrors"
	"sanctum/internal/models"
	"sanctum/internal/platform"
)

func presenceKey(hiveID, userID uuid.UUID) string {
	return "presence:" + hiveID.String() + ":" + userID.String()
}

func rosterKey(hiveID uuid.UUID) string {
	return "roster:hive:" + hiveID.String()
}

// load returns the stored Presence record, or (nil, nil) if absent.
func load(ctx context.Context, kv platform.KeyValueStore, hiveID, userID uuid.UUID) (*models.Presence, error) {
	raw, err := kv.Get(ctx, presenceKey(hiveID, userID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var p models.Presence
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "corrupt presence record", err)
	}
	return &p, nil
}

func save(ctx context.Context, kv platform.KeyValueStore, p models.Presence) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "encode presence record", err)
	}
	return kv.Set(ctx, presenceKey(p.HiveID, p.UserID), string(raw), 0)
}

func remove(ctx context.Context, kv platform.KeyValueStore, hiveID, userID uuid.UUID) error {
	return kv.Delete(ctx, presenceKey(hiveID, userID))
}

// addToRoster and removeFromRoster maintain a per-hive set of user IDs
// with a live Presence record, since platform.KeyValueStore has no native
// set or scan primitive to enumerate presence keys by prefix.
func addToRoster(ctx context.Context, kv platform.KeyValueStore, hiveID, userID uuid.UUID) error {
	ids, err := readRoster(ctx, kv, hiveID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == userID {
			return nil
		}
	}
	ids = append(ids, userID)
	return writeRoster(ctx, kv, hiveID, ids)
}

func removeFromRoster(ctx context.Context, kv platform.KeyValueStore, hiveID, userID uuid.UUID) error {
	ids, err := readRoster(ctx, kv, hiveID)
	if err != nil {
		return err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != userID {
			out = append(out, id)
		}
	}
	return writeRoster(ctx, kv, hiveID, out)
}

func readRoster(ctx context.Context, kv platform.KeyValueStore, hiveID uuid.UUID) ([]uuid.UUID, error) {
	raw, err := kv.Get(ctx, rosterKey(hiveID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatal, "corrupt hive roster", err)
	}
	return ids, nil
}

func writeRoster(ctx context.Context, kv platform.KeyValueStore, hiveID uuid.UUID, ids []uuid.UUID) error {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	raw, err := json.Marshal(ids)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeFatal, "encode hive roster", err)
	}
	return kv.Set(ctx, rosterKey(hiveID), string(raw), 0)
}
