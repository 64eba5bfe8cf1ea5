package docstore

import (
	"context"
	"errors"
	"testing"

	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPostgresStoreWithQuerier(mock)
	ctx := context.Background()

	mock.ExpectQuery("SELECT data FROM documents").
		WithArgs("services", "1").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"Implantes Dentales"}`)))
	doc, err := store.Get(ctx, "services", "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got sample
	if err := doc.Decode(&got); err != nil || got.Name != "Implantes Dentales" {
		t.Fatalf("unexpected doc %+v err=%v", got, err)
	}

	mock.ExpectQuery("SELECT data FROM documents").
		WithArgs("services", "404").
		WillReturnError(pgx.ErrNoRows)
	if _, err := store.Get(ctx, "services", "404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("services", "1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	if err := store.Create(ctx, "services", "1", sample{}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	mock.ExpectExec("UPDATE documents").
		WithArgs("services", "9", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := store.Update(ctx, "services", "9", sample{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("services", "2", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := store.Put(ctx, "services", "2", sample{Name: "Prótesis Flexibles"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	mock.ExpectQuery("SELECT id, data FROM documents").
		WithArgs("services").
		WillReturnRows(pgxmock.NewRows([]string{"id", "data"}).
			AddRow("1", []byte(`{"name":"a"}`)).
			AddRow("2", []byte(`{"name":"b"}`)))
	docs, err := store.List(ctx, "services")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "1" {
		t.Fatalf("unexpected docs %+v", docs)
	}

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("services", "2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	if err := store.Delete(ctx, "services", "2"); err != nil {
		t.Fatalf("delete of missing doc should succeed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
