package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/movaapp/mova-backend/internal/domain/idempotency"
	"github.com/movaapp/mova-backend/internal/domain/ledger"
	"github.com/movaapp/mova-backend/internal/domain/shared"
	"github.com/movaapp/mova-backend/internal/domain/wallet"
	"github.com/movaapp/mova-backend/internal/posting"
)

// Mock implementations of the dependencies

type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) Reserve(ctx context.Context, key, requestHash string, staleBefore time.Time) (*idempotency.Reservation, error) {
	args := m.Called(ctx, key, requestHash, staleBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotency.Reservation), args.Error(1)
}

func (m *MockIdempotencyRepository) Complete(ctx context.Context, key string, response []byte) error {
	args := m.Called(ctx, key, response)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) Fail(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) Get(ctx context.Context, key string) (*idempotency.Record, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idempotency.Record), args.Error(1)
}

func (m *MockIdempotencyRepository) WithTx(tx pgx.Tx) idempotency.Repository {
	m.Called(tx)
	return m
}

type MockLedgerWriter struct {
	mock.Mock
}

func (m *MockLedgerWriter) Apply(ctx context.Context, tx pgx.Tx, in posting.ApplyInput) (*ledger.Transaction, error) {
	args := m.Called(ctx, tx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockTx implements the pgx.Tx interface for testing
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return &pgconn.StatementDescription{}, nil
}

func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *MockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *MockTx) Conn() *pgx.Conn {
	return nil
}

// fakeTxRunner invokes the callback with the mock transaction and returns
// commitErr when the callback itself succeeded
type fakeTxRunner struct {
	tx        pgx.Tx
	commitErr error
	calls     int
}

func (f *fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	if err := fn(f.tx); err != nil {
		return err
	}
	return f.commitErr
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMocks struct {
	idempotency *MockIdempotencyRepository
	writer      *MockLedgerWriter
	events      *MockPublisher
	runner      *fakeTxRunner
	tx          *MockTx
}

func newTestService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()

	m := &serviceMocks{
		idempotency: new(MockIdempotencyRepository),
		writer:      new(MockLedgerWriter),
		events:      new(MockPublisher),
		tx:          new(MockTx),
	}
	m.runner = &fakeTxRunner{tx: m.tx}

	svc := NewService(newTestLogger(), 10*time.Minute, m.runner, m.idempotency, m.writer, m.events)
	return svc, m
}

var (
	senderWalletID   = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	receiverWalletID = uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
)

func testRequest() *Request {
	return &Request{
		SenderWalletID:   senderWalletID,
		ReceiverWalletID: receiverWalletID,
		Amount:           25_000,
		Narration:        "lunch money",
		CorrelationID:    "corr-transfer",
	}
}

func freshReservation(key string) *idempotency.Reservation {
	return &idempotency.Reservation{
		Record: &idempotency.Record{Key: key, Status: shared.IdempotencyStatusPending},
		Fresh:  true,
	}
}

func TestService_Transfer(t *testing.T) {
	ctx := context.Background()

	t.Run("debits sender and credits receiver atomically", func(t *testing.T) {
		svc, m := newTestService(t)
		req := testRequest()
		key := deriveKey(senderWalletID, receiverWalletID, 25_000)

		m.idempotency.On("Reserve", ctx, key, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(freshReservation(key), nil)
		m.writer.On("Apply", ctx, m.tx, mock.MatchedBy(func(in posting.ApplyInput) bool {
			return in.WalletID == senderWalletID &&
				in.Direction == shared.DirectionDebit &&
				in.Category == shared.CategoryTransfer &&
				in.Amount == 25_000 &&
				in.CorrelationID == "corr-transfer"
		})).Return(&ledger.Transaction{ID: uuid.New()}, nil)
		m.writer.On("Apply", ctx, m.tx, mock.MatchedBy(func(in posting.ApplyInput) bool {
			return in.WalletID == receiverWalletID &&
				in.Direction == shared.DirectionCredit &&
				in.Amount == 25_000
		})).Return(&ledger.Transaction{ID: uuid.New()}, nil)
		m.idempotency.On("WithTx", m.tx).Return(m.idempotency)
		m.idempotency.On("Complete", ctx, key, mock.MatchedBy(func(b []byte) bool {
			var receipt Receipt
			return json.Unmarshal(b, &receipt) == nil && receipt.Amount == 25_000
		})).Return(nil)
		m.events.On("Publish", ctx, senderWalletID.String(), mock.MatchedBy(func(e *shared.Event) bool {
			if e.Type != shared.EventTypeTransferCompleted {
				return false
			}
			payload, ok := e.Payload.(shared.TransferEventPayload)
			return ok && payload.SenderWalletID == senderWalletID && payload.Amount == 25_000
		})).Return(nil)

		receipt, err := svc.Transfer(ctx, req)

		require.NoError(t, err)
		assert.False(t, receipt.Replayed)
		assert.Equal(t, senderWalletID, receipt.SenderWalletID)
		assert.Equal(t, receiverWalletID, receipt.ReceiverWalletID)
		assert.Equal(t, int64(25_000), receipt.Amount)
		assert.NotEqual(t, uuid.Nil, receipt.TransferID)
		assert.Equal(t, 1, m.runner.calls)

		// sender sorts below receiver, so the debit leg runs first
		require.Len(t, m.writer.Calls, 2)
		first := m.writer.Calls[0].Arguments.Get(2).(posting.ApplyInput)
		second := m.writer.Calls[1].Arguments.Get(2).(posting.ApplyInput)
		assert.Equal(t, shared.DirectionDebit, first.Direction)
		assert.Equal(t, "transfer:"+receipt.TransferID.String()+":out", first.Reference)
		assert.Equal(t, "transfer:"+receipt.TransferID.String()+":in", second.Reference)

		m.idempotency.AssertExpectations(t)
		m.writer.AssertExpectations(t)
		m.events.AssertExpectations(t)
	})

	t.Run("locks wallets in id order when the receiver sorts first", func(t *testing.T) {
		svc, m := newTestService(t)
		req := testRequest()
		req.SenderWalletID = receiverWalletID
		req.ReceiverWalletID = senderWalletID
		key := deriveKey(req.SenderWalletID, req.ReceiverWalletID, 25_000)

		m.idempotency.On("Reserve", ctx, key, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(freshReservation(key), nil)
		m.writer.On("Apply", ctx, m.tx, mock.AnythingOfType("posting.ApplyInput")).
			Return(&ledger.Transaction{ID: uuid.New()}, nil)
		m.idempotency.On("WithTx", m.tx).Return(m.idempotency)
		m.idempotency.On("Complete", ctx, key, mock.Anything).Return(nil)
		m.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Transfer(ctx, req)

		require.NoError(t, err)
		require.Len(t, m.writer.Calls, 2)
		first := m.writer.Calls[0].Arguments.Get(2).(posting.ApplyInput)
		assert.Equal(t, senderWalletID, first.WalletID)
		assert.Equal(t, shared.DirectionCredit, first.Direction)
	})

	t.Run("replays the cached receipt without touching wallets", func(t *testing.T) {
		svc, m := newTestService(t)
		req := testRequest()
		key := deriveKey(senderWalletID, receiverWalletID, 25_000)

		original := Receipt{
			TransferID:       uuid.New(),
			SenderWalletID:   senderWalletID,
			ReceiverWalletID: receiverWalletID,
			Amount:           25_000,
			CreatedAt:        time.Now().UTC().Add(-time.Minute),
		}
		cached, err := json.Marshal(original)
		require.NoError(t, err)

		m.idempotency.On("Reserve", ctx, key, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(&idempotency.Reservation{
				Record: &idempotency.Record{Key: key, Status: shared.IdempotencyStatusCompleted, CachedResponse: cached},
				Fresh:  false,
			}, nil)

		receipt, err := svc.Transfer(ctx, req)

		require.NoError(t, err)
		assert.True(t, receipt.Replayed)
		assert.Equal(t, original.TransferID, receipt.TransferID)
		assert.Equal(t, 0, m.runner.calls)
		m.writer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a non positive amount", func(t *testing.T) {
		svc, m := newTestService(t)
		req := testRequest()
		req.Amount = 0

		_, err := svc.Transfer(ctx, req)

		assert.ErrorIs(t, err, wallet.ErrInvalidAmount)
		m.idempotency.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a transfer to the same wallet", func(t *testing.T) {
		svc, m := newTestService(t)
		req := testRequest()
		req.ReceiverWalletID = req.SenderWalletID

		_, err := svc.Transfer(ctx, req)

		assert.ErrorIs(t, err, ErrSelfTransfer)
		m.idempotency.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("surfaces a duplicate in flight", func(t *testing.T) {
		svc, m := newTestService(t)
		req := testRequest()
		key := deriveKey(senderWalletID, receiverWalletID, 25_000)

		m.idempotency.On("Reserve", ctx, key, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(nil, idempotency.ErrDuplicateInFlight{Key: key})

		_, err := svc.Transfer(ctx, req)

		assert.ErrorIs(t, err, idempotency.ErrDuplicateInFlight{Key: key})
		assert.Equal(t, 0, m.runner.calls)
	})

	t.Run("releases the reservation when the sender cannot cover the amount", func(t *testing.T) {
		svc, m := newTestService(t)
		req := testRequest()
		key := deriveKey(senderWalletID, receiverWalletID, 25_000)

		m.idempotency.On("Reserve", ctx, key, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(freshReservation(key), nil)
		m.writer.On("Apply", ctx, m.tx, mock.AnythingOfType("posting.ApplyInput")).
			Return(nil, wallet.ErrInsufficientFunds).Once()
		m.idempotency.On("Fail", ctx, key).Return(nil)

		_, err := svc.Transfer(ctx, req)

		assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
		m.idempotency.AssertCalled(t, "Fail", ctx, key)
		m.idempotency.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("releases the reservation when the commit fails", func(t *testing.T) {
		svc, m := newTestService(t)
		req := testRequest()
		key := deriveKey(senderWalletID, receiverWalletID, 25_000)
		commitErr := errors.New("connection reset")

		m.runner.commitErr = commitErr
		m.idempotency.On("Reserve", ctx, key, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(freshReservation(key), nil)
		m.writer.On("Apply", ctx, m.tx, mock.AnythingOfType("posting.ApplyInput")).
			Return(&ledger.Transaction{ID: uuid.New()}, nil)
		m.idempotency.On("WithTx", m.tx).Return(m.idempotency)
		m.idempotency.On("Complete", ctx, key, mock.Anything).Return(nil)
		m.idempotency.On("Fail", ctx, key).Return(nil)

		_, err := svc.Transfer(ctx, req)

		assert.ErrorIs(t, err, commitErr)
		m.idempotency.AssertCalled(t, "Fail", ctx, key)
		m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("publish failure does not fail the transfer", func(t *testing.T) {
		svc, m := newTestService(t)
		req := testRequest()
		key := deriveKey(senderWalletID, receiverWalletID, 25_000)

		m.idempotency.On("Reserve", ctx, key, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(freshReservation(key), nil)
		m.writer.On("Apply", ctx, m.tx, mock.AnythingOfType("posting.ApplyInput")).
			Return(&ledger.Transaction{ID: uuid.New()}, nil)
		m.idempotency.On("WithTx", m.tx).Return(m.idempotency)
		m.idempotency.On("Complete", ctx, key, mock.Anything).Return(nil)
		m.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))

		receipt, err := svc.Transfer(ctx, req)

		require.NoError(t, err)
		assert.False(t, receipt.Replayed)
	})
}

func TestDeriveKey_Deterministic(t *testing.T) {
	key1 := deriveKey(senderWalletID, receiverWalletID, 25_000)
	key2 := deriveKey(senderWalletID, receiverWalletID, 25_000)

	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 64)

	assert.NotEqual(t, key1, deriveKey(receiverWalletID, senderWalletID, 25_000))
	assert.NotEqual(t, key1, deriveKey(senderWalletID, receiverWalletID, 25_001))
}

func TestHashRequest_ExcludesCorrelationID(t *testing.T) {
	a := testRequest()
	b := testRequest()
	b.CorrelationID = "corr-other"

	hashA, err := hashRequest(a)
	require.NoError(t, err)
	hashB, err := hashRequest(b)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)

	b.Narration = "dinner money"
	hashC, err := hashRequest(b)
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashC)
}
