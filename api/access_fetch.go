package api

import (
	"net/http"
	"strconv"

	"artmux/portfolio-api/model"
	"artmux/portfolio-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessList returns the caller's linked accounts grouped by social media,
// with just enough decrypted identity to render an account list
func (a *API) AccessList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	var medias []model.SocialMedia
	if err := a.DB.Find(&medias).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list social medias", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	out := make([]gin.H, 0, len(medias))

	for _, media := range medias {
		var accesses []model.Access
		err := a.DB.
			Where("user_id = ? AND social_media_id = ?", userID, media.ID).
			Find(&accesses).
			Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to list accesses", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		entries := make([]gin.H, 0, len(accesses))
		for i := range accesses {
			entries = append(entries, accessIdentity(&accesses[i], media.Name))
		}

		out = append(out, gin.H{
			"id":       media.ID,
			"name":     media.Name,
			"accesses": entries,
		})
	}

	c.JSON(http.StatusOK, out)
}

func accessIdentity(access *model.Access, mediaName string) gin.H {
	username, err := service.DecryptField(access, "user_name")
	if err != nil {
		// Twitter stores the handle under a different field
		username, err = service.DecryptField(access, "user_username")
	}
	if err != nil {
		zap.L().Warn("Failed to decrypt access identity", zap.Uint("accessID", access.ID), zap.Error(err))
		username = ""
	}

	profile := ""
	switch mediaName {
	case "twitter":
		profile = "https://twitter.com/" + username
	case "reddit":
		profile = "https://reddit.com/u/" + username
	}

	return gin.H{
		"id":          access.ID,
		"username":    username,
		"profilePage": profile,
	}
}

func (a *API) AccessRemove(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(uint)

	accessID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid access id",
			"requestID": requestID,
		})
		return
	}

	var access model.Access
	if err := a.DB.Where("id = ? AND user_id = ?", accessID, userID).First(&access).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Access not found",
			"requestID": requestID,
		})
		return
	}

	if err := a.DB.Delete(&access).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to remove access", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// We only forget our copy; the provider side has to be revoked by the user
	redirect := ""
	if provider, ok := a.Social.Get(access.SocialMediaID); ok {
		redirect = provider.RevokeURL()
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Access removed from our database. Revoke the app's permission on the social network as well",
		"redirect": redirect,
	})
}
