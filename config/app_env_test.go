package config

import "testing"

func TestIsProductionEnv_AcceptsProductionAliases(t *testing.T) {
	for _, env := range []string{"production", "prod", " Production ", "PROD"} {
		env := env
		t.Run(env, func(t *testing.T) {
			if !IsProductionEnv(env) {
				t.Fatalf("expected %q to be treated as production", env)
			}
		})
	}
}

func TestIsProductionEnv_RejectsOtherEnvs(t *testing.T) {
	for _, env := range []string{"", "dev", "development", "staging", "test", "preprod"} {
		env := env
		t.Run(env, func(t *testing.T) {
			if IsProductionEnv(env) {
				t.Fatalf("expected %q not to be treated as production", env)
			}
		})
	}
}
