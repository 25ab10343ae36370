package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/contact"
	_ "modernc.org/sqlite"
)

const (
	queryPhones = `SELECT ZOWNER, ZFULLNUMBER, ZLABEL
		FROM ZABCDPHONENUMBER
		WHERE ZOWNER IS NOT NULL
		ORDER BY ZOWNER, ZORDERINGINDEX, Z_PK`

	queryRecords = `SELECT Z_PK, ZUNIQUEID, ZFIRSTNAME, ZLASTNAME, ZTHUMBNAILIMAGEDATA
		FROM ZABCDRECORD
		ORDER BY Z_PK`
)

// AddressBookSource reads the macOS Contacts store (AddressBook-v22.abcddb).
// Every database is opened read-only.
type AddressBookSource struct {
	Paths []string
}

// Enumerate implements Source. Databases are read in order; the first failure aborts.
func (s *AddressBookSource) Enumerate(ctx context.Context, visit func(contact.Record)) error {
	if len(s.Paths) == 0 {
		return errors.New(config.ErrNoAddressBook)
	}
	for _, p := range s.Paths {
		if err := enumerateBook(ctx, p, visit); err != nil {
			return err
		}
	}
	return nil
}

func enumerateBook(ctx context.Context, path string, visit func(contact.Record)) error {
	log := slog.With(config.LogKeyComponent, config.CompSource, config.LogKeyPath, path)

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s: %w", config.ErrDBOpen, err)
	}
	db, err := sql.Open(config.SQLiteDriver, "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrDBOpen, err)
	}
	defer func() { _ = db.Close() }()

	phones, err := loadPhones(ctx, db)
	if err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, queryRecords)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrDBQuery, err)
	}
	defer func() { _ = rows.Close() }()

	count := 0
	for rows.Next() {
		var (
			pk         int64
			uid, first sql.NullString
			last       sql.NullString
			thumbnail  []byte
		)
		if err := rows.Scan(&pk, &uid, &first, &last, &thumbnail); err != nil {
			return fmt.Errorf("%s: %w", config.ErrDBQuery, err)
		}

		visit(contact.Record{
			Identifier:   uid.String,
			GivenName:    first.String,
			FamilyName:   last.String,
			PhoneNumbers: phones[pk],
			PhotoData:    thumbnail,
		})
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s: %w", config.ErrDBQuery, err)
	}

	log.DebugContext(ctx, config.MsgSourceDone, config.LogKeyCount, count)
	return nil
}

// loadPhones groups phone numbers by owning record, preserving their order.
func loadPhones(ctx context.Context, db *sql.DB) (map[int64][]contact.LabeledValue, error) {
	rows, err := db.QueryContext(ctx, queryPhones)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrDBQuery, err)
	}
	defer func() { _ = rows.Close() }()

	phones := make(map[int64][]contact.LabeledValue)
	for rows.Next() {
		var (
			owner         int64
			number, label sql.NullString
		)
		if err := rows.Scan(&owner, &number, &label); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrDBQuery, err)
		}
		phones[owner] = append(phones[owner], contact.LabeledValue{
			Value: number.String,
			Label: unwrapLabel(label.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrDBQuery, err)
	}
	return phones, nil
}

// unwrapLabel turns the store's built-in label form "_$!<Mobile>!$_" into "Mobile".
// Custom labels are stored plainly and returned unchanged.
func unwrapLabel(label string) string {
	if strings.HasPrefix(label, config.AddressBookLabelHead) && strings.HasSuffix(label, config.AddressBookLabelTail) &&
		len(label) >= len(config.AddressBookLabelHead)+len(config.AddressBookLabelTail) {
		return label[len(config.AddressBookLabelHead) : len(label)-len(config.AddressBookLabelTail)]
	}
	return label
}

// DiscoverAddressBooks lists the Contacts databases under home: the local store
// first, then every account store below Sources/.
func DiscoverAddressBooks(home string) ([]string, error) {
	root := filepath.Join(home, filepath.FromSlash(config.AddressBookRootDir))

	var found []string
	if main := filepath.Join(root, config.AddressBookFileName); fileExists(main) {
		found = append(found, main)
	}
	accounts, err := filepath.Glob(filepath.Join(root, config.AddressBookSourcesDir, "*", config.AddressBookFileName))
	if err != nil {
		return nil, err
	}
	found = append(found, accounts...)

	if len(found) == 0 {
		return nil, fmt.Errorf("%s: %s", config.ErrNoAddressBook, root)
	}
	for _, p := range found {
		slog.Debug(config.MsgBookDiscovered, config.LogKeyComponent, config.CompSource, config.LogKeyPath, p)
	}
	return found, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
