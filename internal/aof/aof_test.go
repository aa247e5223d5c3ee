package aof

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/emberkv/emberkv/internal/value"
)

func TestAppendAndReplay(t *testing.T) {
	fs := afero.NewMemMapFs()
	log, err := Open(fs, "/data/emberkv.aof", SyncAlways)
	require.NoError(t, err)

	require.NoError(t, log.AppendSet("a", value.NewInt(1)))
	require.NoError(t, log.AppendSet("b", value.NewString([]byte("hi"))))
	require.NoError(t, log.AppendDel("a"))
	require.NoError(t, log.Close())

	var got []Record
	require.NoError(t, Replay(fs, "/data/emberkv.aof", func(r Record) error {
		got = append(got, r)
		return nil
	}))

	require.Len(t, got, 3)
	require.Equal(t, OpSet, got[0].Op)
	require.Equal(t, "a", got[0].Key)
	require.Equal(t, OpDel, got[2].Op)
	require.Equal(t, "a", got[2].Key)
	require.Nil(t, got[2].Val)
}

func TestReplayMissingFileIsNotError(t *testing.T) {
	fs := afero.NewMemMapFs()
	err := Replay(fs, "/data/nope.aof", func(Record) error { return nil })
	require.NoError(t, err)
}

func TestReplayTruncatedFinalRecordIsTolerated(t *testing.T) {
	fs := afero.NewMemMapFs()
	log, err := Open(fs, "/data/emberkv.aof", SyncAlways)
	require.NoError(t, err)
	require.NoError(t, log.AppendSet("full", value.NewInt(99)))
	require.NoError(t, log.Close())

	raw, err := afero.ReadFile(fs, "/data/emberkv.aof")
	require.NoError(t, err)
	truncated := raw[:len(raw)-2]
	require.NoError(t, afero.WriteFile(fs, "/data/emberkv.aof", truncated, 0o644))

	var count int
	err = Replay(fs, "/data/emberkv.aof", func(Record) error {
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestRewriteCompactsToLiveSet(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/data/emberkv.aof"
	log, err := Open(fs, path, SyncNo)
	require.NoError(t, err)
	require.NoError(t, log.AppendSet("a", value.NewInt(1)))
	require.NoError(t, log.AppendSet("a", value.NewInt(2)))
	require.NoError(t, log.AppendDel("b"))
	require.NoError(t, log.Close())

	live := []Record{{Op: OpSet, Key: "a", Val: value.NewInt(2)}}
	require.NoError(t, Rewrite(fs, path, live))

	var got []Record
	require.NoError(t, Replay(fs, path, func(r Record) error {
		got = append(got, r)
		return nil
	}))
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].Key)
	n, err := got[0].Val.Int()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
