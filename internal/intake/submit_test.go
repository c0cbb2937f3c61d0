package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/SantanaDZ/cad-social/internal/identity"
	"github.com/SantanaDZ/cad-social/internal/remote"
)

type fakeConn bool

func (f fakeConn) Online() bool { return bool(f) }

type fakeQueue struct {
	payloads []map[string]any
	err      error
}

func (q *fakeQueue) Enqueue(payload map[string]any) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.payloads = append(q.payloads, payload)
	return "queued-1", nil
}

type fakeInserter struct {
	tables  []string
	records []map[string]any
	err     error
}

func (f *fakeInserter) Insert(_ context.Context, table string, record map[string]any) error {
	f.tables = append(f.tables, table)
	f.records = append(f.records, record)
	return f.err
}

type countingProvider struct {
	identity.Static
	calls int
}

func (p *countingProvider) CurrentUser(ctx context.Context) (identity.Identity, error) {
	p.calls++
	return p.Static.CurrentUser(ctx)
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBuildRecord_AddsOwnerAndPendingStatus(t *testing.T) {
	payload := map[string]any{"nome_completo": "Ana Silva", "status": "aprovado"}
	record := BuildRecord(payload, "user-42")

	want := map[string]any{"nome_completo": "Ana Silva", "user_id": "user-42", "status": "pendente"}
	if !reflect.DeepEqual(record, want) {
		t.Fatalf("record = %#v, want %#v", record, want)
	}
	if payload["status"] != "aprovado" {
		t.Fatalf("BuildRecord mutated payload")
	}
}

func TestSubmitter_OfflineQueuesWithoutNetworkOrIdentity(t *testing.T) {
	q := &fakeQueue{}
	ins := &fakeInserter{}
	ident := &countingProvider{Static: identity.Static{Identity: identity.Identity{UserID: "user-42"}}}
	s := NewSubmitter(fakeConn(false), q, ins, ident, quiet())

	outcome, err := s.Submit(context.Background(), map[string]any{"nome_completo": "Ana Silva"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !outcome.Queued || outcome.Sent || outcome.QueueID != "queued-1" {
		t.Fatalf("outcome = %#v", outcome)
	}
	if outcome.Message != MessageQueuedTitle+". "+MessageQueuedDetail {
		t.Fatalf("message = %q", outcome.Message)
	}
	if len(q.payloads) != 1 || len(ins.records) != 0 || ident.calls != 0 {
		t.Fatalf("queued=%d inserted=%d identity calls=%d", len(q.payloads), len(ins.records), ident.calls)
	}
}

func TestSubmitter_OnlineInsertsAttributedRecord(t *testing.T) {
	q := &fakeQueue{}
	ins := &fakeInserter{}
	s := NewSubmitter(fakeConn(true), q, ins, identity.Static{Identity: identity.Identity{UserID: "user-42"}}, quiet())

	outcome, err := s.Submit(context.Background(), map[string]any{"nome_completo": "Ana Silva"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !outcome.Sent || outcome.Queued || outcome.Message != MessageSent {
		t.Fatalf("outcome = %#v", outcome)
	}
	if len(q.payloads) != 0 {
		t.Fatalf("online submission was queued")
	}
	if ins.tables[0] != remote.TableSubmissions {
		t.Fatalf("table = %q", ins.tables[0])
	}
	want := map[string]any{"nome_completo": "Ana Silva", "user_id": "user-42", "status": StatusPending}
	if !reflect.DeepEqual(ins.records[0], want) {
		t.Fatalf("record = %#v, want %#v", ins.records[0], want)
	}
}

func TestSubmitter_OnlineWithoutIdentity(t *testing.T) {
	ins := &fakeInserter{}
	s := NewSubmitter(fakeConn(true), &fakeQueue{}, ins, identity.Static{}, quiet())

	_, err := s.Submit(context.Background(), map[string]any{"nome_completo": "Ana Silva"})
	if !errors.Is(err, identity.ErrNoIdentity) {
		t.Fatalf("error = %v, want ErrNoIdentity", err)
	}
	if len(ins.records) != 0 {
		t.Fatalf("insert attempted without identity")
	}
	if Describe(err) != MessageSessionExpired {
		t.Fatalf("Describe = %q", Describe(err))
	}
}

func TestSubmitter_RemoteErrorsAreDescribed(t *testing.T) {
	ins := &fakeInserter{err: &remote.APIError{Status: 400, Message: "invalid input syntax"}}
	s := NewSubmitter(fakeConn(true), &fakeQueue{}, ins, identity.Static{Identity: identity.Identity{UserID: "u"}}, quiet())

	_, err := s.Submit(context.Background(), map[string]any{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := Describe(err); got != "Erro ao salvar inscrição: invalid input syntax" {
		t.Fatalf("Describe = %q", got)
	}
	if got := Describe(errors.New("boom")); got != MessageUnexpected {
		t.Fatalf("Describe(other) = %q", got)
	}
	if Describe(nil) != "" {
		t.Fatalf("Describe(nil) not empty")
	}
}

func TestSubmitter_QueueEncodeFailure(t *testing.T) {
	s := NewSubmitter(fakeConn(false), &fakeQueue{err: errors.New("encode payload")}, &fakeInserter{}, identity.Static{}, quiet())
	if _, err := s.Submit(context.Background(), map[string]any{}); err == nil {
		t.Fatalf("expected error from queue")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{"pendente", "aprovado", "rejeitado"} {
		if !ValidStatus(s) {
			t.Fatalf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("approved") {
		t.Fatalf("ValidStatus accepted english status")
	}
}
