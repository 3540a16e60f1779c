package oauth

import "encoding/json"

// Provider payloads differ structurally; each decoder reduces one shape to the
// common Profile form. Field fallbacks mirror what each provider actually
// returns for accounts without optional profile data.

type googleUserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func decodeGoogleProfile(body []byte) (Profile, error) {
	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return Profile{}, err
	}
	return Profile{
		Provider:    ProviderGoogle,
		Email:       info.Email,
		DisplayName: info.Name,
		AvatarURL:   info.Picture,
	}, nil
}

type kakaoUserInfo struct {
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
	Properties struct {
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"properties"`
}

func decodeKakaoProfile(body []byte) (Profile, error) {
	var info kakaoUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return Profile{}, err
	}
	nickname := info.Properties.Nickname
	if nickname == "" {
		nickname = info.KakaoAccount.Profile.Nickname
	}
	avatar := info.Properties.ProfileImage
	if avatar == "" {
		avatar = info.KakaoAccount.Profile.ProfileImageURL
	}
	return Profile{
		Provider:    ProviderKakao,
		Email:       info.KakaoAccount.Email,
		DisplayName: nickname,
		AvatarURL:   avatar,
	}, nil
}

type naverUserInfo struct {
	Response struct {
		Email        string `json:"email"`
		Name         string `json:"name"`
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"response"`
}

func decodeNaverProfile(body []byte) (Profile, error) {
	var info naverUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return Profile{}, err
	}
	name := info.Response.Name
	if name == "" {
		name = info.Response.Nickname
	}
	return Profile{
		Provider:    ProviderNaver,
		Email:       info.Response.Email,
		DisplayName: name,
		AvatarURL:   info.Response.ProfileImage,
	}, nil
}
