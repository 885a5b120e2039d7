package service

import (
	"context"
	"time"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/model"
)

// fakeUserRepo is an in-memory UserRepository for service tests. It mimics
// the real one's conflict behavior on the email and wallet_address unique
// indexes. createHook, when set, runs before each Create so tests can
// simulate races.
type fakeUserRepo struct {
	users      map[int64]*model.User
	nextID     int64
	createHook func()
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createHook != nil {
		f.createHook()
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
		if u.WalletAddress != nil && user.WalletAddress != nil && *u.WalletAddress == *user.WalletAddress {
			return apperror.Conflict("user", *user.WalletAddress)
		}
	}
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.nextID++
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", 0)
}

func (f *fakeUserRepo) GetByWalletAddress(_ context.Context, address string) (*model.User, error) {
	for _, u := range f.users {
		if u.WalletAddress != nil && *u.WalletAddress == address {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", 0)
}

func (f *fakeUserRepo) GetByProvider(_ context.Context, provider, providerID string) (*model.User, error) {
	for _, u := range f.users {
		if u.Provider == provider && u.ProviderID == providerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", 0)
}

func (f *fakeUserRepo) UpdateNickname(_ context.Context, id int64, nickname string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.Nickname = nickname
	return nil
}

func (f *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// fakePortfolioRepo serves a fixed set of portfolios; only the methods the
// dashboard touches do anything.
type fakePortfolioRepo struct {
	portfolios []model.Portfolio
}

func (f *fakePortfolioRepo) Create(_ context.Context, p *model.Portfolio) error {
	p.ID = int64(len(f.portfolios) + 1)
	f.portfolios = append(f.portfolios, *p)
	return nil
}

func (f *fakePortfolioRepo) GetByID(_ context.Context, id int64) (*model.Portfolio, error) {
	for i := range f.portfolios {
		if f.portfolios[i].ID == id {
			cp := f.portfolios[i]
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("portfolio", id)
}

func (f *fakePortfolioRepo) ListByUserWithAssets(_ context.Context, userID int64) ([]model.Portfolio, error) {
	out := []model.Portfolio{}
	for _, p := range f.portfolios {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePortfolioRepo) UpdateName(_ context.Context, id int64, name string) error {
	for i := range f.portfolios {
		if f.portfolios[i].ID == id {
			f.portfolios[i].Name = name
			return nil
		}
	}
	return apperror.NotFound("portfolio", id)
}

func (f *fakePortfolioRepo) Delete(_ context.Context, id int64) error {
	for i := range f.portfolios {
		if f.portfolios[i].ID == id {
			f.portfolios = append(f.portfolios[:i], f.portfolios[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("portfolio", id)
}

// fakeAssetRepo is an in-memory AssetRepository.
type fakeAssetRepo struct {
	assets map[int64]*model.Asset
	nextID int64
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: make(map[int64]*model.Asset), nextID: 1}
}

func (f *fakeAssetRepo) Create(_ context.Context, a *model.Asset) error {
	a.ID = f.nextID
	f.nextID++
	cp := *a
	f.assets[a.ID] = &cp
	return nil
}

func (f *fakeAssetRepo) GetByID(_ context.Context, id int64) (*model.Asset, error) {
	if a, ok := f.assets[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, apperror.NotFound("asset", id)
}

func (f *fakeAssetRepo) ListByPortfolio(_ context.Context, portfolioID int64) ([]model.Asset, error) {
	out := []model.Asset{}
	for id := int64(1); id < f.nextID; id++ {
		if a, ok := f.assets[id]; ok && a.PortfolioID == portfolioID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAssetRepo) Update(_ context.Context, a *model.Asset) error {
	if _, ok := f.assets[a.ID]; !ok {
		return apperror.NotFound("asset", a.ID)
	}
	cp := *a
	f.assets[a.ID] = &cp
	return nil
}

func (f *fakeAssetRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.assets[id]; !ok {
		return apperror.NotFound("asset", id)
	}
	delete(f.assets, id)
	return nil
}

// fixedOracle returns one price for every ticker.
type fixedOracle struct {
	price float64
}

func (o fixedOracle) CurrentPrice(_ context.Context, _, _ string, _ float64) float64 {
	return o.price
}

// costOracle echoes the avg buy price back, like the real client does when
// the market service is unreachable.
type costOracle struct{}

func (costOracle) CurrentPrice(_ context.Context, _, _ string, avgBuyPrice float64) float64 {
	return avgBuyPrice
}
