package server

import (
	"context"

	"manager/internal/models"
)

func (s *Server) teams() resource[models.Team, models.TeamInput] {
	return resource[models.Team, models.TeamInput]{
		s:    s,
		path: "/teams",
		key:  "team",
		list: s.store.ListTeams,
		get:  s.store.GetTeam,
		create: func(ctx context.Context, in models.TeamInput) (models.Team, error) {
			if err := in.Validate(); err != nil {
				return models.Team{}, err
			}
			return s.store.CreateTeam(ctx, models.Team{Name: in.Name, MemberIDs: in.MemberIDs})
		},
		update: func(ctx context.Context, id int64, in models.TeamInput) (models.Team, error) {
			if err := in.Validate(); err != nil {
				return models.Team{}, err
			}
			return s.store.UpdateTeam(ctx, models.Team{ID: id, Name: in.Name, MemberIDs: in.MemberIDs})
		},
		remove: s.store.DeleteTeam,
	}
}
