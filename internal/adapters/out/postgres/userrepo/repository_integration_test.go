package userrepo_test

import (
	"context"
	"testing"

	"workorders/internal/adapters/out/postgres/pgtest"
	"workorders/internal/adapters/out/postgres/userrepo"
	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

type UserRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *userrepo.GormUserRepository
}

func (suite *UserRepositoryIntegrationTestSuite) SetupSuite() {
	container, db, err := pgtest.Start(context.Background(), &userrepo.UserDTO{})
	suite.container = container
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *UserRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE users").Error)
	suite.repository = userrepo.NewGormUserRepository(suite.db)
}

func (suite *UserRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UserRepositoryIntegrationTestSuite) add(name string, role user.Role, g kernel.Gender) user.User {
	u, err := user.NewUser(kernel.NewUUID(), name, role, g)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(context.Background(), u))
	return u
}

func (suite *UserRepositoryIntegrationTestSuite) TestGet_ExistingUser() {
	u := suite.add("carol", user.Client, kernel.Female)

	got, err := suite.repository.Get(context.Background(), u.ID())

	suite.Require().NoError(err)
	suite.True(got.ID().IsEqual(u.ID()))
	suite.Equal("carol", got.Username())
	suite.Equal(user.Client, got.Role())
	suite.Equal(kernel.Female, got.Gender())
}

func (suite *UserRepositoryIntegrationTestSuite) TestGet_UnknownUser_ReturnsNotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UserRepositoryIntegrationTestSuite) TestGetWorkersByGender_ReturnsOnlyMatchingWorkers() {
	suite.add("zoe", user.Worker, kernel.Female)
	suite.add("anna", user.Worker, kernel.Female)
	suite.add("mark", user.Worker, kernel.Male)
	suite.add("fiona", user.Client, kernel.Female)

	workers, err := suite.repository.GetWorkersByGender(context.Background(), kernel.Female)

	suite.Require().NoError(err)
	suite.Require().Len(workers, 2)
	suite.Equal("anna", workers[0].Username())
	suite.Equal("zoe", workers[1].Username())
}

func (suite *UserRepositoryIntegrationTestSuite) TestGetWorkersByGender_UnsetGender_MatchesNobody() {
	suite.add("mark", user.Worker, kernel.Male)

	workers, err := suite.repository.GetWorkersByGender(context.Background(), kernel.NoGender)

	suite.Require().NoError(err)
	suite.Empty(workers)
}

func TestUserRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(UserRepositoryIntegrationTestSuite))
}
