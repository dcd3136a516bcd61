package session

import (
	"context"

	"github.com/jonathan/profile-wizard/internal/remote"
	"github.com/jonathan/profile-wizard/internal/state"
	"github.com/jonathan/profile-wizard/internal/types"
	"golang.org/x/sync/errgroup"
)

// reconcile lists the remote collections in parallel and merges them into
// the aggregate. Local entries win over server entries with the same natural
// key. It returns how many server entries were added.
func (s *Session) reconcile(ctx context.Context) (int, error) {
	var (
		skills      []types.SkillEntry
		experiences []types.ExperienceEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.remotes.Skills != nil {
		g.Go(func() error {
			items, err := s.remotes.Skills.List(gctx)
			if err != nil {
				return remote.AsMutationError(remote.OpList, string(types.CategorySkills), err)
			}
			skills = items
			return nil
		})
	}
	if s.remotes.Experiences != nil {
		g.Go(func() error {
			items, err := s.remotes.Experiences.List(gctx)
			if err != nil {
				return remote.AsMutationError(remote.OpList, string(types.CategoryExperiences), err)
			}
			experiences = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var added int
	_, _, err := s.store.Transact(func(cur types.Profile) (state.Action, error) {
		mergedSkills, n, skillsChanged := mergeByKey(cur.Skills, skills)
		mergedExperiences, m, experiencesChanged := mergeByKey(cur.Experiences, experiences)
		added = n + m
		if !skillsChanged && !experiencesChanged {
			return nil, nil
		}
		return state.Batch{
			state.SetCollection[types.SkillEntry]{Lens: state.Skills, Values: mergedSkills},
			state.SetCollection[types.ExperienceEntry]{Lens: state.Experiences, Values: mergedExperiences},
		}, nil
	})
	return added, err
}

// mergeByKey adds server entries whose natural key is absent locally. A
// local entry without a server id adopts the id of the server entry with the
// same key. changed reports whether the result differs from local.
func mergeByKey[T types.Entry[T]](local, server []T) (merged []T, added int, changed bool) {
	out := make([]T, 0, len(local)+len(server))
	byKey := make(map[string]int, len(local))
	for _, e := range local {
		byKey[e.NaturalKey()] = len(out)
		out = append(out, e)
	}

	for _, e := range server {
		key := e.NaturalKey()
		if i, ok := byKey[key]; ok {
			if out[i].ServerID() == "" && e.ServerID() != "" {
				out[i] = out[i].WithIDs(out[i].ID(), e.ServerID())
				changed = true
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, e.WithIDs(newLocalID(), e.ServerID()))
		added++
		changed = true
	}
	return out, added, changed
}
