package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"title-party/internal/game"
)

var (
	testCards = []game.WordCard{
		{ID: uuid.NewString(), Word: "ねこ"},
		{ID: uuid.NewString(), Word: "いぬ"},
		{ID: uuid.NewString(), Word: "そら"},
	}
	testThemes = []game.Theme{
		{ID: uuid.NewString(), Name: "夏の思い出"},
	}
)

// runRepositoryContract checks the behaviour every game.Repository must share.
func runRepositoryContract(t *testing.T, repo game.Repository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	newRoom := func(code string) game.Room {
		return game.Room{
			ID:             uuid.NewString(),
			Code:           code,
			Status:         game.StatusWaiting,
			MaxPlayers:     4,
			TotalRounds:    3,
			PhaseStartedAt: now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	t.Run("room code is unique", func(t *testing.T) {
		first := newRoom("AAAAA1")
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error { return tx.InsertRoom(&first) }))
		second := newRoom("AAAAA1")
		err := repo.Atomically(ctx, func(tx game.Tx) error { return tx.InsertRoom(&second) })
		assert.ErrorIs(t, err, game.ErrConflict)

		found := game.Room{}
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) (err error) {
			found, err = tx.RoomByCode("AAAAA1")
			return err
		}))
		assert.Equal(t, first.ID, found.ID)
	})

	t.Run("room update is compare and swap", func(t *testing.T) {
		room := newRoom("AAAAA2")
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error { return tx.InsertRoom(&room) }))
		stale := room

		room.CurrentViewingIndex = 1
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error { return tx.UpdateRoom(&room) }))
		assert.Equal(t, stale.Version+1, room.Version)

		stale.ShowAllSubmissions = true
		err := repo.Atomically(ctx, func(tx game.Tx) error { return tx.UpdateRoom(&stale) })
		assert.ErrorIs(t, err, game.ErrConflict)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		room := newRoom("AAAAA3")
		boom := errors.New("boom")
		err := repo.Atomically(ctx, func(tx game.Tx) error {
			if err := tx.InsertRoom(&room); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		err = repo.Atomically(ctx, func(tx game.Tx) error {
			_, err := tx.Room(room.ID)
			return err
		})
		assert.ErrorIs(t, err, game.ErrNotFound)
	})

	t.Run("submissions votes and hands", func(t *testing.T) {
		room := newRoom("AAAAA4")
		alice := game.Player{ID: uuid.NewString(), RoomID: room.ID, Nickname: "alice", Avatar: "1", JoinedAt: now}
		bob := game.Player{ID: uuid.NewString(), RoomID: room.ID, Nickname: "bob", Avatar: "2", JoinedAt: now.Add(time.Second)}
		sub := game.Submission{
			ID:          uuid.NewString(),
			RoomID:      room.ID,
			PlayerID:    alice.ID,
			RoundNumber: 1,
			Card1ID:     testCards[0].ID,
			Card2ID:     testCards[1].ID,
			FreeWord:    "の",
			WordOrder:   game.WordOrder{1, 3, 2},
			CreatedAt:   now,
		}
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error {
			if err := tx.InsertRoom(&room); err != nil {
				return err
			}
			if err := tx.InsertPlayer(&alice); err != nil {
				return err
			}
			if err := tx.InsertPlayer(&bob); err != nil {
				return err
			}
			if err := tx.AddToHand(alice.ID, []string{testCards[0].ID, testCards[1].ID, testCards[2].ID}); err != nil {
				return err
			}
			return tx.InsertSubmission(&sub)
		}))

		err := repo.Atomically(ctx, func(tx game.Tx) error {
			return tx.AddToHand(alice.ID, []string{testCards[0].ID})
		})
		assert.ErrorIs(t, err, game.ErrConflict)

		dup := sub
		dup.ID = uuid.NewString()
		err = repo.Atomically(ctx, func(tx game.Tx) error { return tx.InsertSubmission(&dup) })
		assert.ErrorIs(t, err, game.ErrConflict)

		vote := game.Vote{ID: uuid.NewString(), RoomID: room.ID, RoundNumber: 1, VoterID: bob.ID, SubmissionID: sub.ID, CreatedAt: now}
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error {
			if err := tx.InsertVote(&vote); err != nil {
				return err
			}
			if err := tx.AdjustSubmissionVotes(sub.ID, 1); err != nil {
				return err
			}
			if err := tx.AdjustPlayerVotes(alice.ID, -5); err != nil {
				return err
			}
			return tx.RemoveFromHand(alice.ID, []string{testCards[0].ID, testCards[1].ID})
		}))

		second := vote
		second.ID = uuid.NewString()
		err = repo.Atomically(ctx, func(tx game.Tx) error { return tx.InsertVote(&second) })
		assert.ErrorIs(t, err, game.ErrConflict)

		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error {
			players, err := tx.Players(room.ID)
			require.NoError(t, err)
			require.Len(t, players, 2)
			assert.Equal(t, "alice", players[0].Nickname)
			assert.Equal(t, 0, players[0].TotalVotes)

			stored, err := tx.Submission(sub.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, stored.VotesReceived)
			assert.Equal(t, game.WordOrder{1, 3, 2}, stored.WordOrder)

			hand, err := tx.Hand(alice.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{testCards[2].ID}, hand)

			votes, err := tx.Votes(room.ID, 1)
			require.NoError(t, err)
			assert.Len(t, votes, 1)
			return nil
		}))

		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error { return tx.DeleteVote(vote.ID) }))
		err = repo.Atomically(ctx, func(tx game.Tx) error { return tx.DeleteVote(vote.ID) })
		assert.ErrorIs(t, err, game.ErrConflict)
	})

	t.Run("concurrent writers serialize", func(t *testing.T) {
		room := newRoom("AAAAA6")
		author := game.Player{ID: uuid.NewString(), RoomID: room.ID, Nickname: "carol", Avatar: "3", JoinedAt: now}
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error {
			if err := tx.InsertRoom(&room); err != nil {
				return err
			}
			return tx.InsertPlayer(&author)
		}))

		const writers = 8
		var wg sync.WaitGroup
		bumpErrs := make([]error, writers)
		insertErrs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				bumpErrs[i] = repo.Atomically(ctx, func(tx game.Tx) error {
					locked, err := tx.RoomForUpdate(room.ID)
					if err != nil {
						return err
					}
					locked.CurrentViewingIndex++
					return tx.UpdateRoom(&locked)
				})
			}(i)
			go func(i int) {
				defer wg.Done()
				sub := game.Submission{
					ID:          uuid.NewString(),
					RoomID:      room.ID,
					PlayerID:    author.ID,
					RoundNumber: 1,
					Card1ID:     testCards[0].ID,
					Card2ID:     testCards[1].ID,
					FreeWord:    "へ",
					WordOrder:   game.WordOrder{2, 1, 3},
					CreatedAt:   now,
				}
				insertErrs[i] = repo.Atomically(ctx, func(tx game.Tx) error { return tx.InsertSubmission(&sub) })
			}(i)
		}
		wg.Wait()

		inserted := 0
		for i := 0; i < writers; i++ {
			assert.NoError(t, bumpErrs[i])
			if insertErrs[i] == nil {
				inserted++
			} else {
				assert.ErrorIs(t, insertErrs[i], game.ErrConflict)
			}
		}
		assert.Equal(t, 1, inserted)

		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error {
			stored, err := tx.Room(room.ID)
			require.NoError(t, err)
			assert.Equal(t, writers, stored.CurrentViewingIndex)
			assert.Equal(t, room.Version+writers, stored.Version)
			subs, err := tx.Submissions(room.ID, 1)
			require.NoError(t, err)
			assert.Len(t, subs, 1)
			return nil
		}))
	})

	t.Run("events keep their payload", func(t *testing.T) {
		room := newRoom("AAAAA5")
		event := game.Event{
			ID:        uuid.NewString(),
			RoomID:    room.ID,
			Type:      "status_changed",
			Payload:   game.EventPayload{From: "waiting", To: "theme_selection"},
			CreatedAt: now,
		}
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error {
			if err := tx.InsertRoom(&room); err != nil {
				return err
			}
			return tx.AppendEvent(&event)
		}))
		var events []game.Event
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) (err error) {
			events, err = tx.Events(room.ID)
			return err
		}))
		require.Len(t, events, 1)
		assert.Equal(t, "theme_selection", events[0].Payload.To)
	})

	t.Run("catalog", func(t *testing.T) {
		require.NoError(t, repo.Atomically(ctx, func(tx game.Tx) error {
			ids, err := tx.CardIDs()
			require.NoError(t, err)
			assert.Len(t, ids, len(testCards))
			cards, err := tx.Cards([]string{testCards[1].ID, testCards[1].ID})
			require.NoError(t, err)
			assert.Len(t, cards, 1)
			themeIDs, err := tx.ThemeIDs()
			require.NoError(t, err)
			assert.Equal(t, []string{testThemes[0].ID}, themeIDs)
			return nil
		}))
	})
}
