package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/flow/internal/domain"
	"github.com/runoshun/flow/internal/testutil"
	"github.com/runoshun/flow/internal/usecase"
)

func TestShowConfig_Execute(t *testing.T) {
	t.Run("returns file info and effective config", func(t *testing.T) {
		manager := &testutil.MockConfigManager{
			GlobalInfo: domain.ConfigInfo{Path: "/home/test/.config/flow/config.toml"},
			ProjectInfo: domain.ConfigInfo{
				Path:    "/srv/app/.flow/config.toml",
				Content: "[log]\nlevel = \"debug\"\n",
				Exists:  true,
			},
		}
		cfg := domain.NewDefaultConfig()
		cfg.Log.Level = "debug"
		cfg.Warnings = []string{"unknown key in [log]: colour"}
		loader := &testutil.MockConfigLoader{Config: cfg}

		uc := usecase.NewShowConfig(manager, loader)
		out, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		require.NoError(t, err)
		assert.Equal(t, manager.GlobalInfo, out.GlobalConfig)
		assert.Equal(t, manager.ProjectInfo, out.ProjectConfig)
		assert.Contains(t, out.EffectiveConfig, "[log]")
		assert.Regexp(t, `level = .debug.`, out.EffectiveConfig)
		assert.NotContains(t, out.EffectiveConfig, "Warnings")
		assert.Equal(t, cfg.Warnings, out.Warnings)
	})

	t.Run("load error", func(t *testing.T) {
		loader := &testutil.MockConfigLoader{LoadErr: errors.New("bad toml")}

		uc := usecase.NewShowConfig(&testutil.MockConfigManager{}, loader)
		_, err := uc.Execute(context.Background(), usecase.ShowConfigInput{})

		assert.ErrorContains(t, err, "bad toml")
	})
}
