// Package cognito resolves Cognito access tokens into principals.
package cognito

import (
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"nutricare/cmd/internal/integration/identity"
)

const (
	AttrUserID = "custom:user_id"
	AttrRole   = "custom:role"
)

type UserGetter interface {
	GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
}

type Client struct {
	api UserGetter
}

func InitCognitoClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(cognitoidentityprovider.NewFromConfig(cfg)), nil
}

func New(api UserGetter) *Client {
	return &Client{api: api}
}

// Resolve asks Cognito who owns the access token. The numeric user id and
// role live in custom attributes.
func (c *Client) Resolve(ctx context.Context, token string) (*identity.Principal, error) {
	out, err := c.api.GetUser(ctx, &cognitoidentityprovider.GetUserInput{AccessToken: aws.String(token)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NotAuthorizedException", "UserNotFoundException", "UserNotConfirmedException":
				return nil, fmt.Errorf("%w: %s", identity.ErrInvalidToken, apiErr.ErrorMessage())
			}
		}
		return nil, fmt.Errorf("cognito get user: %w", err)
	}

	attrs := attributes(out.UserAttributes)
	return identity.NewPrincipal(attrs[AttrUserID], attrs[AttrRole], aws.ToString(out.Username))
}

func attributes(attrs []types.AttributeType) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[aws.ToString(a.Name)] = aws.ToString(a.Value)
	}
	return out
}
