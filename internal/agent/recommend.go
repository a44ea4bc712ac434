package agent

import (
	"context"
	"fmt"

	"github.com/desertthunder/musicagent/internal/models"
)

// recommend seeds a new pool for playlist and offers its first batch.
func (a *Agent) recommend(ctx context.Context, sess *Session, playlist string) (Response, error) {
	p, err := a.playlists.GetPlaylist(ctx, sess.Username(), playlist)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", playlist), "")
	}

	pool, err := a.recommender.Seed(ctx, p)
	if err != nil {
		return Response{}, err
	}
	if pool.Exhausted() {
		sess.clearChoice()
		return textf(msgNoRecs, playlist), nil
	}

	sess.clearChoice()
	sess.pool = pool
	return a.offerBatch(sess, msgRecommend), nil
}

// recommendAdd adds one suggestion and offers the rest of the pool.
func (a *Agent) recommendAdd(ctx context.Context, t *turn, title, artist, playlist string) (Response, error) {
	sess := t.sess
	song, err := a.suggested(ctx, sess, title, artist, playlist)
	if err != nil {
		return Response{}, err
	}

	user, err := a.playlists.AddSong(ctx, sess.Username(), playlist, song)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", playlist), "")
	}
	t.mutated = true
	added := fmt.Sprintf("Song %s added to %s.", song, playlist)

	pool := sess.pool
	if pool == nil || pool.Playlist != playlist {
		sess.clearChoice()
		return Response{Text: added}, nil
	}

	p, _ := user.Playlist(playlist)
	a.recommender.Advance(pool, p.Clone())
	if pool.Exhausted() {
		sess.clearChoice()
		return Response{Text: added + " There are no more recommendations for " + playlist + "."}, nil
	}
	return a.offerBatch(sess, added+" "+msgRecommend), nil
}

// suggested finds the song a recommend_add payload names, preferring the pool's copy.
func (a *Agent) suggested(ctx context.Context, sess *Session, title, artist, playlist string) (models.Song, error) {
	payload := fmt.Sprintf("/%s %s to %s", CmdRecommendAdd.Name(), models.Song{Title: title, Artist: artist}, playlist)
	if c, ok := sess.candidateFor(payload); ok && c.Song != nil {
		return *c.Song, nil
	}

	song, err := a.catalog.Exact(ctx, title, artist)
	if err != nil {
		return models.Song{}, explain(err, fmt.Sprintf("Song %s was not found.", describeQuery(title, artist)), "")
	}
	return song, nil
}

// offerBatch shows the pool's next batch followed by the Done marker.
func (a *Agent) offerBatch(sess *Session, text string) Response {
	batch := sess.pool.Batch()
	candidates := make([]Candidate, 0, len(batch)+1)
	for _, s := range batch {
		candidates = append(candidates, songCandidate(CmdRecommendAdd, s, sess.pool.Playlist))
	}
	candidates = append(candidates, Candidate{Label: doneLabel, Payload: "/" + CmdDone.Name()})

	sess.offer(candidates)
	return Response{Text: text, Candidates: candidates}
}
