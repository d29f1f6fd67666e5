package config

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestConfiguration_Validate(t *testing.T) {
	cases := map[string]struct {
		modify  func(*Configuration)
		wantErr string
	}{
		"default": {
			modify: func(*Configuration) {},
		},
		"bad-color": {
			modify:  func(c *Configuration) { c.Color = "sometimes" },
			wantErr: "'color' failed on the 'oneof' tag",
		},
		"verbosity-too-high": {
			modify:  func(c *Configuration) { c.Verbosity = 3 },
			wantErr: "'verbosity' failed on the 'lte' tag",
		},
		"negative-pipe-buffer": {
			modify:  func(c *Configuration) { c.PipeBuffer = -1 },
			wantErr: "'pipe_buffer' failed on the 'gte' tag",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			cfg := defaultConfig()
			tc.modify(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestConfiguration_resolve(t *testing.T) {
	cfg := &Configuration{configurationDir: "/etc/nesh"}

	got, err := cfg.resolve("history")
	require.NoError(t, err)
	assert.Equal(t, "/etc/nesh/history", got)

	got, err = cfg.resolve("/var/log/nesh.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "/var/log/nesh.jsonl", got)
}

func TestConfiguration_SearchPath(t *testing.T) {
	cfg := &Configuration{}
	assert.Equal(t, "/bin", cfg.SearchPath("/bin"))

	cfg.Path = "/opt/bin"
	assert.Equal(t, "/opt/bin", cfg.SearchPath("/bin"))
}

func TestConfiguration_HomeDir(t *testing.T) {
	cfg := &Configuration{Home: "/srv/home"}

	home, err := cfg.HomeDir()
	require.NoError(t, err)
	assert.Equal(t, "/srv/home", home)
}
