package repositories

import (
	"database/sql"
	"errors"

	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL unique constraint violation
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// assetColumns holds the nullable columns of an optional asset
type assetColumns struct {
	bucket   sql.NullString
	key      sql.NullString
	location sql.NullString
}

func (a *assetColumns) asset() *models.Asset {
	if !a.key.Valid || a.key.String == "" {
		return nil
	}
	return &models.Asset{
		Bucket:   a.bucket.String,
		Key:      a.key.String,
		Location: a.location.String,
	}
}

// assetArgs returns the bucket, key and location query arguments for an optional asset
func assetArgs(a *models.Asset) (any, any, any) {
	if a == nil || a.Key == "" {
		return nil, nil, nil
	}
	return a.Bucket, a.Key, a.Location
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
