package detail_test

import (
	"testing"

	"github.com/leapstack-labs/leapdetail/pkg/detail"
	"github.com/stretchr/testify/require"
)

var (
	glFields = []string{"A.DATE", "A.ORG", "A.ITEM_NO", "A.ITEM_NAME", "A.CCY", "A.BALANCE"}

	accountFields = []string{"A.DATE", "A.ORG", "A.ITEM_NO", "A.ACCT_NO", "A.CUST_NO", "B.CUST_NAME", "A.CCY", "A.BALANCE"}
)

func newTestTransformer(t *testing.T) *detail.Transformer {
	t.Helper()
	m, err := detail.NewMapping(map[string][]string{
		"TABLE_GL":      glFields,
		"TABLE_ACCOUNT": accountFields,
	})
	require.NoError(t, err)
	return detail.New(m)
}
