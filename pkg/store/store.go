package store

/**
* SQL implementation of football.Repository. The same queries run on
* sqlite (modernc.org/sqlite, pure Go) and postgres (lib/pq); only the
* placeholder style differs. Tables are created from the entity struct
* tags so the schema always matches the domain types.
 */

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/football"
)

// Supported drivers
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Compile-time check to ensure Store implements football.Repository
var _ football.Repository = (*Store)(nil)

// Store is a database backed repository
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and verifies the connection
func Open(driver, dsn string) (*Store, error) {
	if driver != SQLite && driver != Postgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == SQLite {
		// one connection keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database initialized successfully", driver)
	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// entities lists every persisted table
func entities() []Persistable {
	return []Persistable{
		&football.Team{},
		&football.MatchRecord{},
		&football.Player{},
		&football.Injury{},
	}
}

// Migrate creates all tables and indexes if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	for _, obj := range entities() {
		query := createTableSQL(obj)
		logger.Debug("Creating table with SQL", query)
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", obj.TableName(), err)
		}
		for _, query := range indexSQL(obj) {
			if _, err := s.db.ExecContext(ctx, query); err != nil {
				logger.Warn("Failed to create index", err)
			}
		}
	}
	return nil
}

// Save inserts or replaces one entity
func (s *Store) Save(ctx context.Context, obj Persistable) error {
	query, values := upsertSQL(obj)
	if _, err := s.db.ExecContext(ctx, s.rebind(query), values...); err != nil {
		return fmt.Errorf("failed to save into %s: %w", obj.TableName(), err)
	}
	return nil
}

func (s *Store) SaveTeam(ctx context.Context, t *football.Team) error {
	return s.Save(ctx, t)
}

func (s *Store) SaveMatch(ctx context.Context, m *football.MatchRecord) error {
	return s.Save(ctx, m)
}

func (s *Store) SavePlayer(ctx context.Context, p *football.Player) error {
	return s.Save(ctx, p)
}

func (s *Store) SaveInjury(ctx context.Context, i *football.Injury) error {
	return s.Save(ctx, i)
}

func (s *Store) GetTeam(ctx context.Context, teamID int64) (*football.Team, error) {
	t := &football.Team{}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?",
		strings.Join(selectColumns(t, ""), ", "), t.TableName())

	err := s.db.QueryRowContext(ctx, s.rebind(query), teamID).Scan(scanDestinations(t)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %d: %w", teamID, football.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query team %d: %w", teamID, err)
	}
	return t, nil
}

func (s *Store) GetRecentMatches(ctx context.Context, teamID int64, limit int) ([]football.MatchRecord, error) {
	return s.matches(ctx, "(home_team_id = ? OR away_team_id = ?)", limit, teamID, teamID)
}

func (s *Store) GetHeadToHead(ctx context.Context, teamA, teamB int64, limit int) ([]football.MatchRecord, error) {
	return s.matches(ctx, "((home_team_id = ? AND away_team_id = ?) OR (home_team_id = ? AND away_team_id = ?))",
		limit, teamA, teamB, teamB, teamA)
}

// matches runs a played-matches query, newest first
func (s *Store) matches(ctx context.Context, where string, limit int, args ...any) ([]football.MatchRecord, error) {
	m := &football.MatchRecord{}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE is_played = TRUE AND %s ORDER BY match_date DESC, id DESC LIMIT ?",
		strings.Join(selectColumns(m, ""), ", "), m.TableName(), where)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var out []football.MatchRecord
	for rows.Next() {
		var rec football.MatchRecord
		if err := rows.Scan(scanDestinations(&rec)...); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return out, nil
}

func (s *Store) GetActiveInjuries(ctx context.Context, teamID int64) ([]football.InjuredPlayer, error) {
	columns := append(selectColumns(&football.Injury{}, "i"), selectColumns(&football.Player{}, "p")...)
	query := fmt.Sprintf("SELECT %s FROM injuries i JOIN players p ON p.id = i.player_id WHERE p.team_id = ? AND i.is_active = TRUE ORDER BY i.id",
		strings.Join(columns, ", "))

	rows, err := s.db.QueryContext(ctx, s.rebind(query), teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query injuries: %w", err)
	}
	defer rows.Close()

	var out []football.InjuredPlayer
	for rows.Next() {
		var ip football.InjuredPlayer
		dest := append(scanDestinations(&ip.Injury), scanDestinations(&ip.Player)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan injury: %w", err)
		}
		out = append(out, ip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating injuries: %w", err)
	}
	return out, nil
}

// rebind converts ? placeholders to $n for postgres
func (s *Store) rebind(query string) string {
	if s.driver != Postgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
