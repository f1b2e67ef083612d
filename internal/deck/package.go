package deck

import (
	"archive/zip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/slavadubrov/anything2anki/internal/schema"
)

// WritePackage builds an .apkg archive at path from the valid cards in the
// set. The collection database is assembled under a temp dir and zipped
// together with an empty media manifest. Invalid cards are skipped; an input
// with no valid card at all returns ErrNoValidCards.
func (r *Renderer) WritePackage(ctx context.Context, path string, cards schema.FlashcardSet) error {
	valid := validCards(cards)
	if len(valid) == 0 {
		return ErrNoValidCards
	}

	tmpDir, err := os.MkdirTemp("", "anything2anki-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, collectionFilename)
	if err := createCollection(ctx, dbPath, r.name, valid, time.Now()); err != nil {
		return err
	}

	if err := writeArchive(path, dbPath); err != nil {
		return err
	}

	r.logger.Debug("anki package written",
		zap.String("path", path),
		zap.Int("cards", len(valid)))
	return nil
}

func validCards(cards schema.FlashcardSet) schema.FlashcardSet {
	out := make(schema.FlashcardSet, 0, len(cards))
	for _, card := range cards {
		if card.Valid() {
			out = append(out, card)
		}
	}
	return out
}

// createCollection writes a complete Anki collection database containing one
// note and one card per flashcard. A single connection is enough: the file is
// written once and never reopened by this process.
func createCollection(ctx context.Context, path, deckName string, cards schema.FlashcardSet, now time.Time) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open collection database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, collectionSchema); err != nil {
		return fmt.Errorf("failed to create collection schema: %w", err)
	}

	conf, models, decks, dconf, err := collectionJSON(deckName, now)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		 VALUES (1, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		now.Unix(), now.UnixMilli(), now.UnixMilli(), schemaVersion,
		conf, models, decks, dconf,
	); err != nil {
		return fmt.Errorf("failed to write collection row: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, card := range cards {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO notes (guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
			 VALUES (?, ?, ?, -1, '', ?, ?, ?, 0, '')`,
			noteGUID(card.Question, card.Answer),
			QAModelID,
			now.Unix(),
			card.Question+fieldSeparator+card.Answer,
			card.Question,
			fieldChecksum(card.Question),
		)
		if err != nil {
			return fmt.Errorf("failed to insert note %d: %w", i+1, err)
		}
		noteID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to resolve note id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cards (nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
			 VALUES (?, ?, 0, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`,
			noteID, DefaultDeckID, now.Unix(), i+1,
		); err != nil {
			return fmt.Errorf("failed to insert card %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection: %w", err)
	}
	return nil
}

// writeArchive zips the collection database and the media manifest into the
// final .apkg file.
func writeArchive(pkgPath, collectionPath string) error {
	out, err := os.Create(pkgPath)
	if err != nil {
		return fmt.Errorf("failed to create package file: %w", err)
	}
	defer out.Close()

	col, err := os.Open(collectionPath)
	if err != nil {
		return fmt.Errorf("failed to open collection database: %w", err)
	}
	defer col.Close()

	zw := zip.NewWriter(out)
	entry, err := zw.Create(collectionFilename)
	if err != nil {
		return fmt.Errorf("failed to add collection to package: %w", err)
	}
	if _, err := io.Copy(entry, col); err != nil {
		return fmt.Errorf("failed to write collection to package: %w", err)
	}

	media, err := zw.Create("media")
	if err != nil {
		return fmt.Errorf("failed to add media manifest to package: %w", err)
	}
	if _, err := media.Write([]byte("{}")); err != nil {
		return fmt.Errorf("failed to write media manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize package: %w", err)
	}
	return nil
}
