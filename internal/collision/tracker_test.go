package collision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()
	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.Empty(t, tracker.Collisions())
}

func TestTrackerNoCollisionWhenHashesDiffer(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(KindHash32, "aaaaaaaa", 0, 0, 0)
	tracker.Track(KindHash32, "bbbbbbbb", 0, 1, 0)

	require.Equal(t, 2, tracker.Count())
	require.Empty(t, tracker.Collisions())
}

func TestTrackerDetectsCollision(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(KindHash32, "deadbeef", 0, 0, 0)
	tracker.Track(KindHash32, "deadbeef", 0, 3, 0)

	records := tracker.Collisions()
	require.Len(t, records, 1)
	require.Equal(t, KindHash32, records[0].Kind)
	require.Equal(t, "deadbeef", records[0].Hash)
	require.Len(t, records[0].Rows, 2)
	require.Equal(t, uint32(0), records[0].Rows[0].MappingIndex)
	require.Equal(t, uint32(3), records[0].Rows[1].MappingIndex)
}

func TestTrackerSameHashDifferentKindIsNotACollision(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(KindHash32, "deadbeef", 0, 0, 0)
	tracker.Track(KindHash64, "deadbeef", 0, 0, 0)

	require.Empty(t, tracker.Collisions())
}

func TestTrackerCollisionsAreOrderIndependent(t *testing.T) {
	a := NewTracker()
	a.Track(KindHash32, "00000001", 0, 5, 0)
	a.Track(KindHash32, "00000001", 0, 1, 0)
	a.Track(KindHash32, "00000002", 1, 0, 0)
	a.Track(KindHash32, "00000002", 1, 9, 0)

	b := NewTracker()
	b.Track(KindHash32, "00000002", 1, 9, 0)
	b.Track(KindHash32, "00000001", 0, 1, 0)
	b.Track(KindHash32, "00000002", 1, 0, 0)
	b.Track(KindHash32, "00000001", 0, 5, 0)

	require.Equal(t, a.Collisions(), b.Collisions())
}

func TestTrackerCollisionsSortedByMappingIndex(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(KindHash32, "cafebabe", 0, 7, 0)
	tracker.Track(KindHash32, "cafebabe", 0, 2, 0)
	tracker.Track(KindHash32, "cafebabe", 0, 5, 0)

	records := tracker.Collisions()
	require.Len(t, records, 1)
	require.Equal(t, []uint32{2, 5, 7}, []uint32{
		records[0].Rows[0].MappingIndex,
		records[0].Rows[1].MappingIndex,
		records[0].Rows[2].MappingIndex,
	})
}
