package investor

import (
	"context"
	"testing"
	"time"

	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedInvestor(t, db, 250)
	svc := &Service{DB: db}

	inv, err := svc.Load(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, inv.WalletBalance)

	_, err = svc.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrInvestorNotFound)
}

func TestUpdateProfile_OnlyTouchesGivenFields(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedInvestor(t, db, 250)
	svc := &Service{DB: db}

	name := "  Asha Rao "
	age := 31
	inv, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{Name: &name, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", inv.Name)
	require.NotNil(t, inv.Age)
	assert.Equal(t, 31, *inv.Age)
	assert.Nil(t, inv.Location)
	assert.Equal(t, 250.0, inv.WalletBalance)

	unchanged, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", unchanged.Name)

	_, err = svc.UpdateProfile(context.Background(), uuid.New(), ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrInvestorNotFound)
}

func TestTransactions_SentAndReceivedNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	inv := testutil.SeedInvestor(t, db, 0)
	other := uuid.New()
	investorModel := domain.PartyInvestor
	now := time.Now()

	rows := []domain.Transaction{
		{Type: domain.TxTypeInvestment, Amount: 100, FromUser: inv.ID, FromUserModel: domain.PartyInvestor, Description: "old", TransactionDate: now.Add(-2 * time.Hour)},
		{Type: domain.TxTypeDeposit, Amount: 500, FromUser: other, FromUserModel: domain.PartyAdmin, ToUser: &inv.ID, ToUserModel: &investorModel, Description: "new", TransactionDate: now},
		{Type: domain.TxTypeDeposit, Amount: 900, FromUser: other, FromUserModel: domain.PartyAdmin, Description: "unrelated", TransactionDate: now},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	svc := &Service{DB: db}
	list, err := svc.Transactions(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Description)
	assert.Equal(t, "old", list[1].Description)
}
