package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := Wrap(CodeDependency, cause, "write cart")

	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %q", err.Code())
	}
	if err.Unwrap() != cause {
		t.Fatal("expected cause to be preserved")
	}
	if got := err.Error(); got != "DEPENDENCY_ERROR: write cart" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestAsFindsTypedError(t *testing.T) {
	inner := New(CodeNotFound, "cart missing")
	wrapped := fmt.Errorf("outer: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("unexpected code %q", typed.Code())
	}

	if As(fmt.Errorf("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to 500, got %d", meta.HTTPStatus)
	}
}

func TestDumpBuildsChain(t *testing.T) {
	err := Wrap(CodeInternal, fmt.Errorf("root"), "wrapped")
	dump := Dump(err)

	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %q", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %d: %v", len(dump.Chain), dump.Chain)
	}
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgxErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "users_email_key",
		TableName:      "users",
		ColumnName:     "email",
		Detail:         "Key (email)=(asha@example.com) already exists.",
		Message:        "duplicate key value violates unique constraint",
	}
	dump := Dump(Wrap(CodeConflict, pgxErr, "create user"))

	if dump.Code != CodeConflict {
		t.Fatalf("unexpected code %q", dump.Code)
	}
	if dump.PGCode != "23505" || dump.PGConstraint != "users_email_key" {
		t.Fatalf("pgx details not extracted: %+v", dump)
	}

	pqErr := &pq.Error{Code: "23503", Table: "cart_records", Constraint: "cart_records_pkey"}
	dump = Dump(fmt.Errorf("upsert: %w", pqErr))
	if dump.PGCode != "23503" || dump.PGTable != "cart_records" {
		t.Fatalf("pq details not extracted: %+v", dump)
	}
}
