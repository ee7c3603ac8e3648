package repository

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmefin/policyscan/constants"
	"github.com/acmefin/policyscan/internal/common"
)

func openTestDB(t *testing.T) (context.Context, DocumentRepository, EntryRepository) {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{Path: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, nil) })
	require.NoError(t, HealthCheck(ctx, db, time.Second, nil))
	return ctx, NewDocumentRepository(db, nil), NewEntryRepository(db, nil)
}

func hashOf(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}

func TestDocumentUpsertByHashDeduplicates(t *testing.T) {
	ctx, docs, _ := openTestDB(t)

	now := time.Now().UTC()
	d1, dedup, err := docs.UpsertByHash(ctx, "/scans/a.txt", "a.txt", "txt", 42, hashOf("content"), now)
	require.NoError(t, err)
	assert.False(t, dedup)
	assert.Equal(t, constants.JobStatusQueued, d1.Status)

	d2, dedup, err := docs.UpsertByHash(ctx, "/scans/copy-of-a.txt", "copy-of-a.txt", "txt", 42, hashOf("content"), now)
	require.NoError(t, err)
	assert.True(t, dedup)
	assert.Equal(t, d1.ID, d2.ID)
	assert.Equal(t, "/scans/a.txt", d2.SourcePath)
}

func TestDocumentGetByID(t *testing.T) {
	ctx, docs, _ := openTestDB(t)

	created, _, err := docs.UpsertByHash(ctx, "/scans/a.txt", "a.txt", "txt", 1, hashOf("a"), time.Now())
	require.NoError(t, err)

	got, err := docs.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "a.txt", got.Filename)
	assert.Nil(t, got.ProcessedAt)

	_, err = docs.GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestDocumentGetByHashNotFound(t *testing.T) {
	ctx, docs, _ := openTestDB(t)

	_, err := docs.GetByHash(ctx, hashOf("missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestDocumentUpdateStatus(t *testing.T) {
	ctx, docs, _ := openTestDB(t)

	d, _, err := docs.UpsertByHash(ctx, "/scans/a.txt", "a.txt", "txt", 1, hashOf("a"), time.Now())
	require.NoError(t, err)

	done := time.Now().UTC()
	require.NoError(t, docs.UpdateStatus(ctx, d.ID, constants.JobStatusDecoded, &done))

	got, err := docs.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusDecoded, got.Status)
	require.NotNil(t, got.ProcessedAt)

	err = docs.UpdateStatus(ctx, uuid.New(), constants.JobStatusFailed, nil)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestDocumentList(t *testing.T) {
	ctx, docs, _ := openTestDB(t)

	_, _, err := docs.UpsertByHash(ctx, "/scans/a.txt", "a.txt", "txt", 1, hashOf("a"), time.Now())
	require.NoError(t, err)
	_, _, err = docs.UpsertByHash(ctx, "/scans/b.txt", "b.txt", "txt", 1, hashOf("b"), time.Now())
	require.NoError(t, err)

	all, err := docs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEntriesReplaceAndList(t *testing.T) {
	ctx, docs, entries := openTestDB(t)

	d, _, err := docs.UpsertByHash(ctx, "/scans/a.txt", "a.txt", "txt", 1, hashOf("a"), time.Now())
	require.NoError(t, err)

	first := []*Entry{
		{Seq: 0, Raw: "123456789", Result: "123456789", Status: constants.EntryStatusOK},
		{Seq: 1, Raw: "111111111", Result: "711111111", Status: constants.EntryStatusOK},
		{Seq: 2, Raw: "222222222", Result: "222222222", Status: constants.EntryStatusInvalid},
	}
	require.NoError(t, entries.ReplaceForDocument(ctx, d.ID, first))

	got, err := entries.ListByDocument(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "711111111", got[1].Result)
	assert.Equal(t, constants.EntryStatusInvalid, got[2].Status)

	// replacing drops the old rows
	second := []*Entry{
		{Seq: 0, Raw: "000000000", Result: "000000000", Status: constants.EntryStatusOK},
	}
	require.NoError(t, entries.ReplaceForDocument(ctx, d.ID, second))

	got, err = entries.ListByDocument(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "000000000", got[0].Raw)
}

func TestEntriesCountByStatus(t *testing.T) {
	ctx, docs, entries := openTestDB(t)

	d, _, err := docs.UpsertByHash(ctx, "/scans/a.txt", "a.txt", "txt", 1, hashOf("a"), time.Now())
	require.NoError(t, err)

	require.NoError(t, entries.ReplaceForDocument(ctx, d.ID, []*Entry{
		{Seq: 0, Raw: "123456789", Result: "123456789", Status: constants.EntryStatusOK},
		{Seq: 1, Raw: "000000000", Result: "000000000", Status: constants.EntryStatusOK},
		{Seq: 2, Raw: "222222222", Result: "222222222", Status: constants.EntryStatusInvalid},
		{Seq: 3, Raw: "?????????", Result: "?????????", Status: constants.EntryStatusIllegible},
	}))

	counts, err := entries.CountByStatus(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		constants.EntryStatusOK:        2,
		constants.EntryStatusInvalid:   1,
		constants.EntryStatusIllegible: 1,
	}, counts)
}
