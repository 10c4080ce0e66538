package model

// 外部スキンAPIから受け取るDTO群。
// 本サービスはデータの所有者ではないため、ルーティング判断に必要な
// 最小限の構造のみ型付けし、残りはそのまま受け渡す。

// TopTenEntry は週間ランキングの1エントリを表す。
type TopTenEntry struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Index はトップページに表示する週間トップ10を表す。
type Index struct {
	TopTen []TopTenEntry `json:"top_ten"`
}

// Textures はプロフィールに紐付くテクスチャ情報を表す。
type Textures struct {
	SkinURL          *string `json:"skinURL"`
	CapeURL          *string `json:"capeURL"`
	TextureValue     *string `json:"texture_value"`
	TextureSignature *string `json:"texture_signature"`
}

// AccountUser はMinecraftアカウントのプロフィールを表す。
type AccountUser struct {
	ID        string   `json:"id"`
	IDHyphens string   `json:"id_hyphens"`
	Name      string   `json:"name"`
	Legacy    *bool    `json:"legacy"`
	Textures  Textures `json:"textures"`
}

// SkinHistory はアカウントのスキン履歴サマリを表す。
type SkinHistory struct {
	LastTen []int64 `json:"lastTen"`
	Total   int     `json:"total"`
}

// Account はアカウントページに必要なデータを表す。
type Account struct {
	User        AccountUser `json:"user"`
	SkinHistory SkinHistory `json:"skinHistory"`
}

// SkinMeta はスキン1件のメタデータを表す。
type SkinMeta struct {
	ID               string  `json:"id"`
	DuplicateOf      *string `json:"duplicateOf"`
	OriginalURL      string  `json:"originalURL"`
	TextureValue     *string `json:"textureValue"`
	TextureSignature *string `json:"textureSignature"`
	Added            string  `json:"added"`
	AddedBy          int     `json:"addedBy"`
	CleanHash        *string `json:"cleanHash"`
}

// Tag はスキンに付与されたタグを表す。
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TagSum は投票集計済みタグを表す。
type TagSum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sum  int    `json:"sum"`
}

// SeenOn はスキンを使用しているプロフィールを表す。
type SeenOn struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProfileVote は閲覧者自身のタグ投票を表す。
type ProfileVote struct {
	ID   string `json:"id"`
	Vote bool   `json:"vote"`
}

// Skin はスキン詳細ページに必要なデータを表す。
// ProfileVotesは閲覧者がログインしている場合のみ設定される。
type Skin struct {
	Skin         SkinMeta      `json:"skin"`
	Tags         []Tag         `json:"tags"`
	AITags       []TagSum      `json:"aiTags"`
	TagVotes     []TagSum      `json:"tagVotes"`
	SeenOn       []SeenOn      `json:"seenOn"`
	ProfileVotes []ProfileVote `json:"profileVotes"`
}

// SkinsPage はスキン一覧の1ページを表す。
type SkinsPage struct {
	Skins       []SkinMeta `json:"skins"`
	Page        int        `json:"page"`
	HasNextPage bool       `json:"hasNextPage"`
}

// SearchProfiles は検索結果のプロフィールマッチを表す。
type SearchProfiles struct {
	Direct   *SeenOn         `json:"direct"`
	Indirect []IndirectMatch `json:"indirect"`
}

// IndirectMatch は過去の名前などでの間接マッチを表す。
type IndirectMatch struct {
	Name        string `json:"name"`
	MatchedName string `json:"matched_name"`
	ID          string `json:"id"`
}

// SearchSkins は検索結果のスキンヒットを表す。
type SearchSkins struct {
	Hits        []SkinMeta `json:"hits"`
	Page        int        `json:"page"`
	HasNextPage bool       `json:"hasNextPage"`
}

// Search は検索ページに必要なデータを表す。
type Search struct {
	Profiles SearchProfiles `json:"profiles"`
	Skins    SearchSkins    `json:"skins"`
}
