package repository

import (
	"testing"

	"uvlhub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityCreateAddsOwner(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	repo := NewCommunityRepository(db)

	c := &model.Community{Name: "AI Researchers"}
	require.NoError(t, repo.Create(c, owner.ID))

	m, err := repo.GetMembership(c.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, m.Role)

	found, err := repo.FindByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{owner.ID}, found.UsersWithRole(model.RoleOwner))
	assert.Equal(t, "owner@example.com", found.Memberships[0].User.Email)
}

func TestCommunityFindByMemberExcludesRequests(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	user := createUser(t, db, "user@example.com")
	repo := NewCommunityRepository(db)

	joined := &model.Community{Name: "Joined"}
	require.NoError(t, repo.Create(joined, owner.ID))
	pending := &model.Community{Name: "Pending"}
	require.NoError(t, repo.Create(pending, owner.ID))

	require.NoError(t, repo.AddMembership(joined.ID, user.ID, model.RoleMember))
	require.NoError(t, repo.AddMembership(pending.ID, user.ID, model.RoleRequester))

	cs, err := repo.FindByMember(user.ID)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, joined.ID, cs[0].ID)

	cs, err = repo.FindByMember(owner.ID)
	require.NoError(t, err)
	assert.Len(t, cs, 2)
}

func TestCommunitySearchByNameIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	repo := NewCommunityRepository(db)
	require.NoError(t, repo.Create(&model.Community{Name: "Python Developers"}, owner.ID))
	require.NoError(t, repo.Create(&model.Community{Name: "AI Researchers"}, owner.ID))

	cs, err := repo.SearchByName("PYTHON")
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Python Developers", cs[0].Name)
}

func TestCommunityUpdateRoleAndDeleteMembership(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	user := createUser(t, db, "user@example.com")
	repo := NewCommunityRepository(db)
	c := &model.Community{Name: "C"}
	require.NoError(t, repo.Create(c, owner.ID))
	require.NoError(t, repo.AddMembership(c.ID, user.ID, model.RoleRequester))

	require.NoError(t, repo.UpdateRole(c.ID, user.ID, model.RoleMember))
	m, err := repo.GetMembership(c.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, m.Role)

	require.NoError(t, repo.DeleteMembership(c.ID, user.ID))
	_, err = repo.GetMembership(c.ID, user.ID)
	assert.True(t, IsNotFound(err))

	assert.True(t, IsNotFound(repo.DeleteMembership(c.ID, user.ID)))
	assert.True(t, IsNotFound(repo.UpdateRole(c.ID, user.ID, model.RoleMember)))
}

func TestCommunityDeleteDetachesDatasets(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	repo := NewCommunityRepository(db)
	c := &model.Community{Name: "C"}
	require.NoError(t, repo.Create(c, owner.ID))
	ds := createDataset(t, db, datasetFixture{title: "D", userID: owner.ID, communityID: uintPtr(c.ID)})

	require.NoError(t, repo.Delete(c.ID))

	_, err := repo.FindByID(c.ID)
	assert.True(t, IsNotFound(err))
	reloaded, err := NewDatasetRepository(db).FindByID(ds.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.CommunityID)

	assert.True(t, IsNotFound(repo.Delete(c.ID)))
}
