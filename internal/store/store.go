package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/google/uuid"
	"github.com/voxlog/voxlog/internal/ports"
)

// Store — артефакты пользователей под <root>/<category>/<user_id>/.
// user id приходит только из аутентифицированной сессии, имена файлов
// санитизируются, так что путь одного пользователя не может указать
// на файлы другого.
type Store struct {
	root string
	log  *logger.ZapLogger
}

func New(root string, log *logger.ZapLogger) *Store {
	return &Store{root: root, log: log}
}

// EnsureDir — идемпотентно: гонка "каталог уже есть" не ошибка
// (MkdirAll это гарантирует).
func (s *Store) EnsureDir(userID int64, cat ports.Category) (string, error) {
	dir := filepath.Join(s.root, string(cat), strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", ports.WrapFailure(ports.PersistFailure, "ensure dir "+dir, err)
	}
	return dir, nil
}

func (s *Store) Path(userID int64, cat ports.Category, filename string) (string, error) {
	name := Sanitize(filename)
	if name == "" {
		return "", ports.Fail(ports.InputRejected, "empty or unsafe filename")
	}
	dir, err := s.EnsureDir(userID, cat)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GeneratedName — "{prefix}_{engine}_{lang}_{uuid}.{ext}". UUID гарантирует
// отсутствие коллизий между конкурентными запросами одного пользователя.
func (s *Store) GeneratedName(prefix, engine, lang, ext string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s_%s_%s.%s", prefix, engine, safeToken(lang), id, ext)
}

// Remove — best-effort: отсутствие файла — предупреждение, не ошибка.
func (s *Store) Remove(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		if s.log != nil {
			s.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "artifact already missing: " + path,
				Service: "store",
			})
		}
		return false, nil
	}
	return false, ports.WrapFailure(ports.PersistFailure, "remove "+path, err)
}

// Sanitize — отбрасывает компоненты пути и всё, кроме [a-zA-Z0-9._-].
// "../../etc/passwd" превращается в "passwd", ".." и "." — в пустую строку.
func Sanitize(filename string) string {
	name := filepath.Base(filepath.ToSlash(filename))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ".")
	return out
}

func safeToken(s string) string {
	if s == "" {
		return "unknown"
	}
	s = strings.ReplaceAll(s, " ", "-")
	return Sanitize(s)
}
