package dummy

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databreaker/internal/broker/connectors"
	"databreaker/internal/broker/connectors/contract"
)

func TestDummyContract(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	suite := contract.Suite{
		ConnectorID: ID,
		Connector:   c,
		ScanCases: []contract.ScanCase{
			{
				Name:  "name only uses placeholder address",
				Query: connectors.PersonQuery{FirstName: "Jane", LastName: "Doe"},
				Validate: func(t *testing.T, records []connectors.FoundRecord) {
					require.Len(t, records, 2)
					assert.Equal(t, "Jane Doe", records[0].DataValue)
					assert.Equal(t, "123 Main St, Anytown, CA", records[1].DataValue)
					assert.Equal(t, profileURL, records[1].ProfileURL)
				},
			},
			{
				Name: "contact fields are echoed",
				Query: connectors.PersonQuery{
					FirstName: "Jane", LastName: "Doe",
					City: "Portland", State: "OR",
					Email: "jane@example.com", Phone: "555-0100",
				},
				Validate: func(t *testing.T, records []connectors.FoundRecord) {
					require.Len(t, records, 4)
					assert.Equal(t, "123 Main St, Portland, OR", records[1].DataValue)
					assert.Equal(t, connectors.KindEmail, records[2].DataType)
					assert.Equal(t, connectors.KindPhone, records[3].DataType)
					assert.Empty(t, records[3].ProfileURL)
				},
			},
		},
	}
	suite.Run(t)
}

func TestDummyDeletionLifecycle(t *testing.T) {
	c, _ := New()
	ctx := context.Background()

	sub, err := c.RequestDeletion(ctx, connectors.PersonQuery{}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sub.ExternalRef, "DUMMY-"))
	assert.Equal(t, "Deletion request submitted to Dummy Broker", sub.Message)

	other, _ := c.RequestDeletion(ctx, connectors.PersonQuery{}, nil)
	assert.NotEqual(t, sub.ExternalRef, other.ExternalRef)

	check, err := c.CheckDeletionStatus(ctx, sub.ExternalRef)
	require.NoError(t, err)
	assert.Equal(t, "in_progress", check.Status)
	assert.Nil(t, check.CompletedAt)
	assert.Contains(t, check.Message, sub.ExternalRef)
}
