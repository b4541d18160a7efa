package cmd_test

import (
	"testing"

	clicmd "github.com/angelospk/tmdb-go/cmd/cli/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestValidateKeyCommand(t *testing.T) {
	t.Run("ConfiguredKey", func(t *testing.T) {
		client := new(MockClient)
		testEnv(t, client)
		client.On("ValidateAPIKey", mock.Anything).Return(true, "").Once()

		output, err := executeCommand(t, "", "validate-key")

		require.NoError(t, err)
		assert.Equal(t, "API key test-api-key is valid.\n", output)
		require.Len(t, client.configs, 1)
		assert.Equal(t, "test-api-key", client.configs[0].ApiKey)
		client.AssertExpectations(t)
	})

	t.Run("ArgumentIsSanitized", func(t *testing.T) {
		client := new(MockClient)
		testEnv(t, client)
		client.On("ValidateAPIKey", mock.Anything).Return(false, "Invalid API key - You must be granted a valid key.").Once()

		output, err := executeCommand(t, "", "validate-key", " bad<key> ")

		require.Error(t, err)
		assert.Contains(t, output, "API key badkey is invalid: Invalid API key - You must be granted a valid key.")
		require.Len(t, client.configs, 1)
		assert.Equal(t, "badkey", client.configs[0].ApiKey)
	})

	t.Run("NoKey", func(t *testing.T) {
		client := new(MockClient)
		testEnv(t, client)
		setConfig(t, clicmd.CfgKeyAPIKey, "")

		_, err := executeCommand(t, "", "validate-key")

		require.Error(t, err)
		assert.Empty(t, client.configs, "no client is built without a key")
	})
}
