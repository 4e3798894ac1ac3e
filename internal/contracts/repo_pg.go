package contracts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"contract-backend/internal/fields"
)

const contractsTable = "contracts"

var pg = goqu.Dialect("postgres")

// summaryColumns omit raw_text, which can be large and is only served on detail reads.
var summaryColumns = []any{
	"id", "file_name", "storage_key", "mime_type", "size_bytes", "status", "score", "error_message",
	fields.CategoryPartyIdentification,
	fields.CategoryAccountInformation,
	fields.CategoryFinancialDetails,
	fields.CategoryPaymentStructure,
	fields.CategoryRevenueClassification,
	fields.CategoryServiceLevelAgreements,
	"created_at", "updated_at",
}

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new contract.
func (r *PGRepo) Create(ctx context.Context, c Contract) error {
	const query = `
INSERT INTO contracts (
	id, file_name, storage_key, mime_type, size_bytes, status, score, error_message, raw_text,
	party_identification, account_information, financial_details,
	payment_structure, revenue_classification, service_level_agreements,
	created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	cats, err := marshalCategories(c.Fields)
	if err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	_, err = r.DB.ExecContext(ctx, query,
		c.ID,
		c.FileName,
		c.StorageKey,
		c.MimeType,
		c.SizeBytes,
		string(c.Status),
		c.Score,
		nullString(c.ErrorMessage),
		nullString(c.RawText),
		cats[0], cats[1], cats[2], cats[3], cats[4], cats[5],
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

// GetByID returns a contract including its raw text.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Contract, error) {
	cols := append(append([]any{}, summaryColumns...), "raw_text")
	query, args, err := pg.From(contractsTable).Prepared(true).
		Select(cols...).
		Where(goqu.C("id").Eq(id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return Contract{}, err
	}

	var rawText sql.NullString
	c, err := scanContract(r.DB.QueryRowContext(ctx, query, args...), &rawText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contract{}, ErrNotFound
		}
		return Contract{}, err
	}
	if rawText.Valid {
		c.RawText = rawText.String
	}
	return c, nil
}

// UpdateFields writes only the columns set in u. A status change is guarded in
// the WHERE clause so concurrent writers cannot break the state machine.
func (r *PGRepo) UpdateFields(ctx context.Context, id string, u Update) error {
	if u.Empty() {
		_, err := r.GetByID(ctx, id)
		return err
	}

	record := goqu.Record{"updated_at": time.Now().UTC()}
	if u.Status != nil {
		record["status"] = string(*u.Status)
	}
	if u.Score != nil {
		record["score"] = *u.Score
	}
	if u.ErrorMessage != nil {
		record["error_message"] = nullString(*u.ErrorMessage)
	}
	if u.RawText != nil {
		record["raw_text"] = nullString(*u.RawText)
	}
	if u.Fields != nil {
		cats, err := marshalCategories(*u.Fields)
		if err != nil {
			return err
		}
		for i, name := range fields.Categories {
			record[name] = cats[i]
		}
	}

	where := []exp.Expression{goqu.C("id").Eq(id)}
	if u.Status != nil {
		where = append(where, goqu.C("status").In(statusStrings(allowedFrom(*u.Status))))
	}
	query, args, err := pg.Update(contractsTable).Prepared(true).Set(record).Where(where...).ToSQL()
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Status == nil {
		return fmt.Errorf("update contract id=%s: no rows affected", id)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, *u.Status)
}

// List returns one page of contracts matching f.
func (r *PGRepo) List(ctx context.Context, f ListFilter) (Page, error) {
	f = f.Normalize()
	base := pg.From(contractsTable).Prepared(true).Where(listConditions(f)...)

	countQuery, countArgs, err := base.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return Page{}, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return Page{}, err
	}

	order := goqu.C(f.SortBy).Asc()
	if f.SortDesc {
		order = goqu.C(f.SortBy).Desc()
	}
	query, args, err := base.Select(summaryColumns...).
		Order(order, goqu.C("id").Asc()).
		Limit(uint(f.Limit)).
		Offset(uint(f.Offset())).
		ToSQL()
	if err != nil {
		return Page{}, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	var out []Contract
	for rows.Next() {
		c, err := scanContract(rows, nil)
		if err != nil {
			return Page{}, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	return newPage(out, total, f), nil
}

func listConditions(f ListFilter) []exp.Expression {
	var conds []exp.Expression
	if f.Status != "" {
		conds = append(conds, goqu.C("status").Eq(string(f.Status)))
	}
	if f.MinScore != nil {
		conds = append(conds, goqu.C("score").Gte(*f.MinScore))
	}
	if f.MaxScore != nil {
		conds = append(conds, goqu.C("score").Lte(*f.MaxScore))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		conds = append(conds, goqu.Or(
			goqu.C("file_name").ILike(pattern),
			goqu.Cast(goqu.C("id"), "TEXT").ILike(pattern),
		))
	}
	return conds
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner, rawText *sql.NullString) (Contract, error) {
	var c Contract
	var status string
	var mimeType sql.NullString
	var errorMessage sql.NullString
	var cats [6][]byte
	dest := []any{
		&c.ID, &c.FileName, &c.StorageKey, &mimeType, &c.SizeBytes, &status, &c.Score, &errorMessage,
		&cats[0], &cats[1], &cats[2], &cats[3], &cats[4], &cats[5],
		&c.CreatedAt, &c.UpdatedAt,
	}
	if rawText != nil {
		dest = append(dest, rawText)
	}
	if err := row.Scan(dest...); err != nil {
		return Contract{}, err
	}
	c.Status = Status(status)
	if mimeType.Valid {
		c.MimeType = mimeType.String
	}
	if errorMessage.Valid {
		c.ErrorMessage = errorMessage.String
	}
	if err := unmarshalCategories(cats, &c.Fields); err != nil {
		return Contract{}, fmt.Errorf("decode fields for contract %s: %w", c.ID, err)
	}
	return c, nil
}

// marshalCategories encodes the six categories in fields.Categories order.
func marshalCategories(f fields.Fields) ([6][]byte, error) {
	var out [6][]byte
	values := []any{
		f.PartyIdentification,
		f.AccountInformation,
		f.FinancialDetails,
		f.PaymentStructure,
		f.RevenueClassification,
		f.ServiceLevelAgreements,
	}
	for i, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("encode %s: %w", fields.Categories[i], err)
		}
		out[i] = b
	}
	return out, nil
}

func unmarshalCategories(cats [6][]byte, f *fields.Fields) error {
	targets := []any{
		&f.PartyIdentification,
		&f.AccountInformation,
		&f.FinancialDetails,
		&f.PaymentStructure,
		&f.RevenueClassification,
		&f.ServiceLevelAgreements,
	}
	for i, raw := range cats {
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, targets[i]); err != nil {
			return fmt.Errorf("%s: %w", fields.Categories[i], err)
		}
	}
	return nil
}

func statusStrings(in []Status) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ Repo = (*PGRepo)(nil)
