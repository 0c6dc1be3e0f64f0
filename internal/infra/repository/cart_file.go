package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"storefront/internal/domain/model"
)

// CartFileStorage はキーごとに <dir>/<key>.json を1つ持つ。
// 書き込みは一時ファイル＋renameで置き換える。
type CartFileStorage struct {
	dir string
}

func NewCartFileStorage(dir string) (*CartFileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cart dir: %w", err)
	}
	return &CartFileStorage{dir: dir}, nil
}

func (s *CartFileStorage) Load(_ context.Context, key string) ([]model.CartLine, error) {
	raw, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return []model.CartLine{}, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []model.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", key, err)
	}
	return lines, nil
}

func (s *CartFileStorage) Save(ctx context.Context, key string, lines []model.CartLine) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".cart-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

// キーに使えない文字は置き換える（"cart:<session>" など）
func (s *CartFileStorage) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.dir, safe+".json")
}
