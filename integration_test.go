//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vostok-promo/service-voucher/internal/application"
	voucherDomain "github.com/vostok-promo/service-voucher/internal/domain/voucher"
	"github.com/vostok-promo/service-voucher/internal/repository"
)

// TestInsert_DuplicateCodeRejected verifies the database uniqueness constraint
// on the code column, which is what generation relies on to redraw.
func TestInsert_DuplicateCodeRejected(t *testing.T) {
	infra := setupDatabase(t)
	defer infra.Cleanup()
	stack := setupVoucherStack(t, infra.DB)

	camp := seedCampaign(t, infra.DB, 2, 2)
	brand := seedBrand(t, infra.DB, "Acme Coffee", "acme-coffee")

	ctx := context.Background()
	first := voucherDomain.NewVoucher("DUPCODE", camp.ID(), brand.ID())
	require.NoError(t, stack.Vouchers.Insert(ctx, first))

	second := voucherDomain.NewVoucher("DUPCODE", camp.ID(), brand.ID())
	err := stack.Vouchers.Insert(ctx, second)
	require.ErrorIs(t, err, voucherDomain.ErrDuplicateCode)
}

// TestGenerate_ProducesUniqueRows generates a batch against the real database
// and verifies every code landed as a distinct FREE row.
func TestGenerate_ProducesUniqueRows(t *testing.T) {
	infra := setupDatabase(t)
	defer infra.Cleanup()
	stack := setupVoucherStack(t, infra.DB)

	camp := seedCampaign(t, infra.DB, 2, 2)
	brand := seedBrand(t, infra.DB, "Acme Coffee", "acme-coffee")

	generated, err := stack.Service.Generate(context.Background(), application.GenerateVouchersRequest{
		CampaignID: camp.ID(),
		BrandID:    brand.ID(),
		Count:      200,
	})
	require.NoError(t, err)
	require.Len(t, generated, 200)

	var count int64
	require.NoError(t, infra.DB.Model(&repository.VoucherModel{}).Where("status = ?", "FREE").Count(&count).Error)
	assert.Equal(t, int64(200), count)

	var distinct int64
	require.NoError(t, infra.DB.Model(&repository.VoucherModel{}).Distinct("code").Count(&distinct).Error)
	assert.Equal(t, int64(200), distinct)
}

// TestActivate_ConcurrentRace hammers one code from many goroutines. The
// conditional UPDATE guard must let exactly one redemption through.
func TestActivate_ConcurrentRace(t *testing.T) {
	infra := setupDatabase(t)
	defer infra.Cleanup()
	stack := setupVoucherStack(t, infra.DB)

	camp := seedCampaign(t, infra.DB, 2, 2)
	brand := seedBrand(t, infra.DB, "Acme Coffee", "acme-coffee")

	ctx := context.Background()
	v := voucherDomain.NewVoucher("RACECDE", camp.ID(), brand.ID())
	require.NoError(t, stack.Vouchers.Insert(ctx, v))

	const racers = 10
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = stack.Service.Activate(ctx, application.ActivateCodeRequest{
				ChatID: "chat-race", Code: "RACECDE",
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, voucherDomain.ErrAlreadyActivated)
		}
	}
	assert.Equal(t, 1, successes)

	var model repository.VoucherModel
	require.NoError(t, infra.DB.Where("code = ?", "RACECDE").First(&model).Error)
	assert.Equal(t, "ACTIVATED", model.Status)
	assert.NotNil(t, model.UserID)

	// Every attempt is in the audit log; exactly one succeeded.
	var attempts, succeeded int64
	require.NoError(t, infra.DB.Model(&repository.ActivationLogModel{}).Where("code = ?", "RACECDE").Count(&attempts).Error)
	require.NoError(t, infra.DB.Model(&repository.ActivationLogModel{}).Where("code = ? AND success = ?", "RACECDE", true).Count(&succeeded).Error)
	assert.Equal(t, int64(racers), attempts)
	assert.Equal(t, int64(1), succeeded)
}

// TestConfirmWinner_DualWriteAtomicity verifies the status flip and the winner
// insert commit together, and a second confirmation changes nothing.
func TestConfirmWinner_DualWriteAtomicity(t *testing.T) {
	infra := setupDatabase(t)
	defer infra.Cleanup()
	stack := setupVoucherStack(t, infra.DB)

	camp := seedCampaign(t, infra.DB, 2, 2)
	brand := seedBrand(t, infra.DB, "Acme Coffee", "acme-coffee")

	ctx := context.Background()
	v := voucherDomain.NewVoucher("WINCODE", camp.ID(), brand.ID())
	require.NoError(t, stack.Vouchers.Insert(ctx, v))
	_, err := stack.Service.Activate(ctx, application.ActivateCodeRequest{ChatID: "chat-win", Code: "WINCODE"})
	require.NoError(t, err)

	res, err := stack.Service.ConfirmWinner(ctx, "WINCODE")
	require.NoError(t, err)
	assert.True(t, res.OK)

	var model repository.VoucherModel
	require.NoError(t, infra.DB.Where("code = ?", "WINCODE").First(&model).Error)
	assert.Equal(t, "USED", model.Status)

	var winners int64
	require.NoError(t, infra.DB.Model(&repository.WinnerModel{}).Count(&winners).Error)
	assert.Equal(t, int64(1), winners)

	// Second confirmation is rejected and the winner table is untouched.
	_, err = stack.Service.ConfirmWinner(ctx, "WINCODE")
	require.Error(t, err)
	require.NoError(t, infra.DB.Model(&repository.WinnerModel{}).Count(&winners).Error)
	assert.Equal(t, int64(1), winners)
}

// TestConfirmWinner_FreeCode_LeavesNoWinnerRow verifies a rejected
// confirmation writes nothing.
func TestConfirmWinner_FreeCode_LeavesNoWinnerRow(t *testing.T) {
	infra := setupDatabase(t)
	defer infra.Cleanup()
	stack := setupVoucherStack(t, infra.DB)

	camp := seedCampaign(t, infra.DB, 2, 2)
	brand := seedBrand(t, infra.DB, "Acme Coffee", "acme-coffee")

	ctx := context.Background()
	v := voucherDomain.NewVoucher("FREECDE", camp.ID(), brand.ID())
	require.NoError(t, stack.Vouchers.Insert(ctx, v))

	_, err := stack.Service.ConfirmWinner(ctx, "FREECDE")
	require.Error(t, err)

	var model repository.VoucherModel
	require.NoError(t, infra.DB.Where("code = ?", "FREECDE").First(&model).Error)
	assert.Equal(t, "FREE", model.Status)

	var winners int64
	require.NoError(t, infra.DB.Model(&repository.WinnerModel{}).Count(&winners).Error)
	assert.Zero(t, winners)
}

// TestResetAllByUser verifies the bulk reset voids every activated voucher a
// user holds and clears attribution.
func TestResetAllByUser(t *testing.T) {
	infra := setupDatabase(t)
	defer infra.Cleanup()
	stack := setupVoucherStack(t, infra.DB)

	camp := seedCampaign(t, infra.DB, 2, 2)
	brandA := seedBrand(t, infra.DB, "Acme Coffee", "acme-coffee")
	brandB := seedBrand(t, infra.DB, "Borealis Tea", "borealis-tea")

	ctx := context.Background()
	require.NoError(t, stack.Vouchers.Insert(ctx, voucherDomain.NewVoucher("RSTCD01", camp.ID(), brandA.ID())))
	require.NoError(t, stack.Vouchers.Insert(ctx, voucherDomain.NewVoucher("RSTCD02", camp.ID(), brandB.ID())))

	_, err := stack.Service.Activate(ctx, application.ActivateCodeRequest{ChatID: "chat-reset", Code: "RSTCD01"})
	require.NoError(t, err)
	_, err = stack.Service.Activate(ctx, application.ActivateCodeRequest{ChatID: "chat-reset", Code: "RSTCD02"})
	require.NoError(t, err)

	var userModel repository.UserModel
	require.NoError(t, infra.DB.Where("chat_id = ?", "chat-reset").First(&userModel).Error)

	count, err := stack.Service.ResetUserVouchers(ctx, userModel.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var models []repository.VoucherModel
	require.NoError(t, infra.DB.Where("code IN ?", []string{"RSTCD01", "RSTCD02"}).Find(&models).Error)
	require.Len(t, models, 2)
	for _, m := range models {
		assert.Equal(t, "DELETED", m.Status)
		assert.Nil(t, m.UserID)
		assert.Nil(t, m.ActivatedAt)
	}
}
